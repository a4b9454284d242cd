package messaging

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/hivemesh/hivemesh-go/contracts"
)

// A correlation identifier is carried on the wire as a two-field
// sub-document: a discriminator naming the variant and a textual
// encoding of the value. The textual form keeps the document flat
// and self-describing regardless of which identifier type the
// originating protocol used.
const (
	correlationFieldType = "type"
	correlationFieldID   = "id"

	correlationTypeString = "string"
	correlationTypeULong  = "ulong"
	correlationTypeUUID   = "uuid"
	correlationTypeBinary = "binary"
)

// EncodeCorrelationID encodes an identifier into its wire
// sub-document. Unsigned integers are rendered in decimal text so
// magnitudes beyond the signed 64-bit range survive JSON transport
// without precision loss; binary identifiers are base64 encoded.
func EncodeCorrelationID(id any) (contracts.Document, error) {
	switch v := id.(type) {
	case string:
		return correlationDocument(correlationTypeString, v), nil
	case uint64:
		return correlationDocument(correlationTypeULong, strconv.FormatUint(v, 10)), nil
	case uuid.UUID:
		return correlationDocument(correlationTypeUUID, v.String()), nil
	case []byte:
		return correlationDocument(correlationTypeBinary, base64.StdEncoding.EncodeToString(v)), nil
	default:
		return nil, fmt.Errorf("identifier must be one of string, uint64, uuid.UUID or []byte, got %T: %w",
			id, contracts.ErrInvalidArgument)
	}
}

// DecodeCorrelationID reverses EncodeCorrelationID. It fails if the
// discriminator is missing or unrecognized, or if the encoded value
// cannot be parsed back into the variant's underlying type.
func DecodeCorrelationID(doc contracts.Document) (any, error) {
	typ, ok := doc.GetString(correlationFieldType)
	if !ok {
		return nil, fmt.Errorf("correlation sub-document has no type discriminator: %w", contracts.ErrInvalidArgument)
	}
	encoded, ok := doc.GetString(correlationFieldID)
	if !ok {
		return nil, fmt.Errorf("correlation sub-document has no id value: %w", contracts.ErrInvalidArgument)
	}

	switch typ {
	case correlationTypeString:
		return encoded, nil
	case correlationTypeULong:
		v, err := strconv.ParseUint(encoded, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed ulong correlation id %q: %w", encoded, contracts.ErrInvalidArgument)
		}
		return v, nil
	case correlationTypeUUID:
		v, err := uuid.Parse(encoded)
		if err != nil {
			return nil, fmt.Errorf("malformed uuid correlation id %q: %w", encoded, contracts.ErrInvalidArgument)
		}
		return v, nil
	case correlationTypeBinary:
		v, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 correlation id: %w", contracts.ErrInvalidArgument)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown correlation id type %q: %w", typ, contracts.ErrInvalidArgument)
	}
}

func correlationDocument(typ, id string) contracts.Document {
	return contracts.Document{
		correlationFieldType: typ,
		correlationFieldID:   id,
	}
}
