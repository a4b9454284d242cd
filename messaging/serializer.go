package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/hivemesh/hivemesh-go/contracts"
)

// EnvelopeSerializer converts envelopes to and from the byte form
// the bus transport carries.
type EnvelopeSerializer interface {
	Serialize(envelope *Envelope) ([]byte, error)
	Deserialize(data []byte) (*Envelope, error)
}

// JSONEnvelopeSerializer serializes envelope documents as JSON.
type JSONEnvelopeSerializer struct{}

// NewJSONEnvelopeSerializer creates a new JSON envelope serializer.
func NewJSONEnvelopeSerializer() *JSONEnvelopeSerializer {
	return &JSONEnvelopeSerializer{}
}

// Serialize serializes an envelope to JSON.
func (s *JSONEnvelopeSerializer) Serialize(envelope *Envelope) ([]byte, error) {
	if envelope == nil {
		return nil, fmt.Errorf("envelope cannot be nil")
	}
	data, err := json.Marshal(envelope.ToDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Deserialize deserializes JSON data to an envelope.
func (s *JSONEnvelopeSerializer) Deserialize(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	var doc contracts.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return FromDocument(doc), nil
}
