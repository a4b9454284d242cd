package amqp

import (
	"encoding/json"

	"github.com/hivemesh/hivemesh-go/contracts"
)

// Names of the application properties and annotations harvested from
// inbound messages. Application properties travel in the message's
// application-properties section, annotations in its
// message-annotations section.
const (
	PropertyTenantID  = "tenant-id"
	PropertyDeviceID  = "device-id"
	PropertyGatewayID = "gateway-id"

	AnnotationAppCorrelationID = "x-opt-app-correlation-id"
)

// Message models an inbound AMQP 1.0 message as seen by the envelope
// layer: the fields that get harvested into a bus envelope, read-only.
// MessageID and CorrelationID carry whatever identifier type the
// sender used (string, uint64, uuid.UUID or []byte); a nil value
// means the field is not set.
type Message struct {
	Subject               string
	MessageID             any
	CorrelationID         any
	ContentType           string
	Payload               []byte
	ApplicationProperties map[string]any
	Annotations           map[string]any
}

// StringProperty returns the named application property if it is
// present and string-typed.
func (m *Message) StringProperty(name string) (string, bool) {
	if m.ApplicationProperties == nil {
		return "", false
	}
	v, ok := m.ApplicationProperties[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// TenantID returns the tenant identifier application property.
func (m *Message) TenantID() (string, bool) {
	return m.StringProperty(PropertyTenantID)
}

// DeviceID returns the device identifier application property.
func (m *Message) DeviceID() (string, bool) {
	return m.StringProperty(PropertyDeviceID)
}

// GatewayID returns the gateway identifier application property.
func (m *Message) GatewayID() (string, bool) {
	return m.StringProperty(PropertyGatewayID)
}

// AppCorrelationIDHint returns the x-opt-app-correlation-id
// annotation, or false if the message does not carry one.
func (m *Message) AppCorrelationIDHint() bool {
	if m.Annotations == nil {
		return false
	}
	if v, ok := m.Annotations[AnnotationAppCorrelationID].(bool); ok {
		return v
	}
	return false
}

// JSONPayload decodes the message body as a JSON document. It
// reports absence for an empty or non-JSON body rather than failing,
// so callers can apply the usual omit-if-absent rule.
func (m *Message) JSONPayload() (contracts.Document, bool) {
	if len(m.Payload) == 0 {
		return nil, false
	}
	var doc contracts.Document
	if err := json.Unmarshal(m.Payload, &doc); err != nil {
		return nil, false
	}
	return doc, true
}
