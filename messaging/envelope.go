package messaging

import (
	"fmt"

	"github.com/hivemesh/hivemesh-go/amqp"
	"github.com/hivemesh/hivemesh-go/contracts"
)

// Reserved top-level field names of the envelope document. Callers
// using SetProperty for additional fields must stay clear of these.
const (
	FieldSubject          = "subject"
	FieldStatus           = "status"
	FieldTenantID         = amqp.PropertyTenantID
	FieldDeviceID         = amqp.PropertyDeviceID
	FieldGatewayID        = amqp.PropertyGatewayID
	FieldPayload          = "payload"
	FieldCacheControl     = "cache-control"
	FieldCorrelationID    = "correlation-id"
	FieldAppCorrelationID = amqp.AnnotationAppCorrelationID
)

// Envelope is the uniform request/response document exchanged
// between services over the bus. A request carries the operation
// name under the subject field, a response carries a status code;
// which of the two an arbitrary deserialized envelope is follows
// from which field is present, not from a tag.
//
// All setters follow the same rule: an absent value is omitted from
// the document, never stored as null. Setters return the envelope
// for chaining. An Envelope is not safe for concurrent use; share
// serialized copies via ToDocument instead of the live instance.
type Envelope struct {
	doc contracts.Document
}

// ForOperation creates a request envelope for the named operation.
func ForOperation(operation string) (*Envelope, error) {
	if operation == "" {
		return nil, fmt.Errorf("operation name must not be empty: %w", contracts.ErrInvalidArgument)
	}
	e := &Envelope{doc: contracts.NewDocument()}
	e.doc[FieldSubject] = operation
	return e, nil
}

// ForOperationFrom creates a request envelope for the operation
// named by an inbound message's subject.
func ForOperationFrom(msg *amqp.Message) (*Envelope, error) {
	if msg.Subject == "" {
		return nil, fmt.Errorf("message has no subject: %w", contracts.ErrInvalidArgument)
	}
	return ForOperation(msg.Subject)
}

// ForStatusCode creates a response envelope carrying the given
// status code.
func ForStatusCode(status int) *Envelope {
	e := &Envelope{doc: contracts.NewDocument()}
	e.doc[FieldStatus] = status
	return e
}

// FromDocument wraps an existing document as an envelope. No
// validation is performed; whether it is a request or a response is
// determined lazily by the accessors.
func FromDocument(doc contracts.Document) *Envelope {
	if doc == nil {
		doc = contracts.NewDocument()
	}
	return &Envelope{doc: doc}
}

// Operation returns the operation a request envelope asks for. It
// is absent on response envelopes.
func (e *Envelope) Operation() (string, bool) {
	return e.doc.GetString(FieldSubject)
}

// Status returns the outcome code of a response envelope. It is
// absent on request envelopes.
func (e *Envelope) Status() (int, bool) {
	return e.doc.GetInt(FieldStatus)
}

// Tenant returns the tenant identifier field.
func (e *Envelope) Tenant() (string, bool) {
	return e.doc.GetString(FieldTenantID)
}

// SetTenant stores the tenant identifier. An empty value is omitted.
func (e *Envelope) SetTenant(tenantID string) *Envelope {
	return e.putString(FieldTenantID, tenantID)
}

// SetTenantFrom stores the tenant identifier harvested from an
// inbound message, if the message carries one.
func (e *Envelope) SetTenantFrom(msg *amqp.Message) *Envelope {
	if v, ok := msg.TenantID(); ok {
		e.putString(FieldTenantID, v)
	}
	return e
}

// DeviceID returns the device identifier field.
func (e *Envelope) DeviceID() (string, bool) {
	return e.doc.GetString(FieldDeviceID)
}

// SetDeviceID stores the device identifier. An empty value is omitted.
func (e *Envelope) SetDeviceID(deviceID string) *Envelope {
	return e.putString(FieldDeviceID, deviceID)
}

// SetDeviceIDFrom stores the device identifier harvested from an
// inbound message, if the message carries one.
func (e *Envelope) SetDeviceIDFrom(msg *amqp.Message) *Envelope {
	if v, ok := msg.DeviceID(); ok {
		e.putString(FieldDeviceID, v)
	}
	return e
}

// GatewayID returns the gateway identifier field.
func (e *Envelope) GatewayID() (string, bool) {
	return e.doc.GetString(FieldGatewayID)
}

// SetGatewayID stores the gateway identifier. An empty value is
// omitted.
func (e *Envelope) SetGatewayID(gatewayID string) *Envelope {
	return e.putString(FieldGatewayID, gatewayID)
}

// SetGatewayIDFrom stores the gateway identifier harvested from an
// inbound message, if the message carries one.
func (e *Envelope) SetGatewayIDFrom(msg *amqp.Message) *Envelope {
	if v, ok := msg.GatewayID(); ok {
		e.putString(FieldGatewayID, v)
	}
	return e
}

// JSONPayload returns the payload document.
func (e *Envelope) JSONPayload() (contracts.Document, bool) {
	return e.doc.GetDocument(FieldPayload)
}

// SetJSONPayload stores the request/response payload. A nil payload
// is omitted.
func (e *Envelope) SetJSONPayload(payload contracts.Document) *Envelope {
	if payload != nil {
		e.doc[FieldPayload] = payload
	}
	return e
}

// SetJSONPayloadFrom stores the payload decoded from an inbound
// message's body, if the message carries a JSON payload.
func (e *Envelope) SetJSONPayloadFrom(msg *amqp.Message) *Envelope {
	if doc, ok := msg.JSONPayload(); ok {
		e.doc[FieldPayload] = doc
	}
	return e
}

// CacheDirective returns the textual cache directive field.
func (e *Envelope) CacheDirective() (string, bool) {
	return e.doc.GetString(FieldCacheControl)
}

// SetCacheDirective stores the textual form of the directive. A nil
// directive is omitted.
func (e *Envelope) SetCacheDirective(directive *contracts.CacheDirective) *Envelope {
	if directive != nil {
		e.doc[FieldCacheControl] = directive.String()
	}
	return e
}

// AppCorrelationID returns the application-correlation flag. Unlike
// the other accessors it defaults to false rather than reporting
// absence.
func (e *Envelope) AppCorrelationID() bool {
	v, _ := e.doc.GetBool(FieldAppCorrelationID)
	return v
}

// SetAppCorrelationID stores the application-correlation flag.
func (e *Envelope) SetAppCorrelationID(flag bool) *Envelope {
	e.doc[FieldAppCorrelationID] = flag
	return e
}

// SetAppCorrelationIDFrom stores the flag from the inbound message's
// annotation. A missing annotation stores false, it does not omit.
func (e *Envelope) SetAppCorrelationIDFrom(msg *amqp.Message) *Envelope {
	return e.SetAppCorrelationID(msg.AppCorrelationIDHint())
}

// CorrelationID returns the decoded correlation identifier, one of
// string, uint64, uuid.UUID or []byte. It is absent if the field is
// missing or its sub-document cannot be decoded.
func (e *Envelope) CorrelationID() (any, bool) {
	sub, ok := e.doc.GetDocument(FieldCorrelationID)
	if !ok {
		return nil, false
	}
	id, err := DecodeCorrelationID(sub)
	if err != nil {
		return nil, false
	}
	return id, true
}

// SetCorrelationID encodes and stores the correlation identifier. A
// nil identifier is omitted; an identifier of an unsupported type is
// rejected.
func (e *Envelope) SetCorrelationID(id any) (*Envelope, error) {
	if id == nil {
		return e, nil
	}
	sub, err := EncodeCorrelationID(id)
	if err != nil {
		return nil, err
	}
	e.doc[FieldCorrelationID] = sub
	return e, nil
}

// SetCorrelationIDFrom stores the correlation identifier harvested
// from an inbound message: its correlation-id if set, its message-id
// otherwise. A message carrying neither is rejected.
func (e *Envelope) SetCorrelationIDFrom(msg *amqp.Message) (*Envelope, error) {
	switch {
	case msg.CorrelationID != nil:
		return e.SetCorrelationID(msg.CorrelationID)
	case msg.MessageID != nil:
		return e.SetCorrelationID(msg.MessageID)
	default:
		return nil, fmt.Errorf("message does not contain message-id nor correlation-id: %w", contracts.ErrInvalidArgument)
	}
}

// SetProperty stores an additional named field. A nil value is
// omitted; an empty name is rejected.
func (e *Envelope) SetProperty(name string, value any) (*Envelope, error) {
	if name == "" {
		return nil, fmt.Errorf("property name must not be empty: %w", contracts.ErrInvalidArgument)
	}
	if value != nil {
		e.doc[name] = value
	}
	return e, nil
}

// SetStringProperty stores the named string application property
// harvested from an inbound message, if the message carries one.
func (e *Envelope) SetStringProperty(name string, msg *amqp.Message) (*Envelope, error) {
	if name == "" {
		return nil, fmt.Errorf("property name must not be empty: %w", contracts.ErrInvalidArgument)
	}
	if v, ok := msg.StringProperty(name); ok {
		e.doc[name] = v
	}
	return e, nil
}

// Property returns the raw value of a named field.
func (e *Envelope) Property(name string) (any, bool) {
	v, ok := e.doc[name]
	return v, ok
}

// PropertyAs returns a named field converted to T. A missing key or
// a stored value of a different type reports absence, never an
// error, so envelopes of unknown shape are always safe to read.
func PropertyAs[T any](e *Envelope, name string) (T, bool) {
	var zero T
	v, ok := e.doc[name]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// ToDocument returns a deep copy of the envelope's document.
// Mutating the returned value never affects the envelope.
func (e *Envelope) ToDocument() contracts.Document {
	return e.doc.Copy()
}

func (e *Envelope) putString(name, value string) *Envelope {
	if value != "" {
		e.doc[name] = value
	}
	return e
}
