package messaging

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemesh/hivemesh-go/amqp"
	"github.com/hivemesh/hivemesh-go/contracts"
)

func TestForOperation(t *testing.T) {
	t.Run("creates request envelope", func(t *testing.T) {
		e, err := ForOperation("get")

		require.NoError(t, err)
		op, ok := e.Operation()
		assert.True(t, ok)
		assert.Equal(t, "get", op)
		_, ok = e.Status()
		assert.False(t, ok)
	})

	t.Run("rejects empty operation name", func(t *testing.T) {
		_, err := ForOperation("")

		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})
}

func TestForOperationFrom(t *testing.T) {
	t.Run("uses the message subject", func(t *testing.T) {
		e, err := ForOperationFrom(&amqp.Message{Subject: "assert"})

		require.NoError(t, err)
		op, _ := e.Operation()
		assert.Equal(t, "assert", op)
	})

	t.Run("rejects message without subject", func(t *testing.T) {
		_, err := ForOperationFrom(&amqp.Message{})

		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})
}

func TestForStatusCode(t *testing.T) {
	e := ForStatusCode(200)

	status, ok := e.Status()
	assert.True(t, ok)
	assert.Equal(t, 200, status)
	_, ok = e.Operation()
	assert.False(t, ok)
}

func TestFromDocument(t *testing.T) {
	t.Run("wraps document without validation", func(t *testing.T) {
		e := FromDocument(contracts.Document{"tenant-id": "DEFAULT_TENANT"})

		_, ok := e.Operation()
		assert.False(t, ok)
		_, ok = e.Status()
		assert.False(t, ok)
		tenant, ok := e.Tenant()
		assert.True(t, ok)
		assert.Equal(t, "DEFAULT_TENANT", tenant)
	})

	t.Run("accepts nil document", func(t *testing.T) {
		e := FromDocument(nil)

		_, ok := e.Tenant()
		assert.False(t, ok)
	})
}

func TestStringFieldSetters(t *testing.T) {
	t.Run("setters chain and store values", func(t *testing.T) {
		e := ForStatusCode(200).
			SetTenant("DEFAULT_TENANT").
			SetDeviceID("4711").
			SetGatewayID("gw-1")

		tenant, _ := e.Tenant()
		device, _ := e.DeviceID()
		gateway, _ := e.GatewayID()
		assert.Equal(t, "DEFAULT_TENANT", tenant)
		assert.Equal(t, "4711", device)
		assert.Equal(t, "gw-1", gateway)
	})

	t.Run("empty values are omitted not stored", func(t *testing.T) {
		e := ForStatusCode(200).
			SetTenant("").
			SetDeviceID("").
			SetGatewayID("")

		doc := e.ToDocument()
		assert.NotContains(t, doc, FieldTenantID)
		assert.NotContains(t, doc, FieldDeviceID)
		assert.NotContains(t, doc, FieldGatewayID)
	})

	t.Run("from-message setters omit missing properties", func(t *testing.T) {
		e := ForStatusCode(200).
			SetTenantFrom(&amqp.Message{}).
			SetDeviceIDFrom(&amqp.Message{}).
			SetGatewayIDFrom(&amqp.Message{})

		doc := e.ToDocument()
		assert.NotContains(t, doc, FieldTenantID)
		assert.NotContains(t, doc, FieldDeviceID)
		assert.NotContains(t, doc, FieldGatewayID)
	})

	t.Run("from-message setters harvest application properties", func(t *testing.T) {
		msg := &amqp.Message{
			ApplicationProperties: map[string]any{
				amqp.PropertyTenantID: "DEFAULT_TENANT",
				amqp.PropertyDeviceID: "4711",
			},
		}

		e := ForStatusCode(200).SetTenantFrom(msg).SetDeviceIDFrom(msg)

		tenant, _ := e.Tenant()
		device, _ := e.DeviceID()
		assert.Equal(t, "DEFAULT_TENANT", tenant)
		assert.Equal(t, "4711", device)
	})
}

func TestJSONPayload(t *testing.T) {
	t.Run("stores and reads payload document", func(t *testing.T) {
		payload := contracts.Document{"temp": 21}

		e := ForStatusCode(200).SetJSONPayload(payload)

		got, ok := e.JSONPayload()
		assert.True(t, ok)
		assert.Equal(t, payload, got)
	})

	t.Run("nil payload is omitted", func(t *testing.T) {
		e := ForStatusCode(200).SetJSONPayload(nil)

		assert.NotContains(t, e.ToDocument(), FieldPayload)
	})

	t.Run("from-message setter decodes the body", func(t *testing.T) {
		msg := &amqp.Message{Payload: []byte(`{"temp": 21}`)}

		e := ForStatusCode(200).SetJSONPayloadFrom(msg)

		payload, ok := e.JSONPayload()
		assert.True(t, ok)
		temp, _ := payload.GetInt("temp")
		assert.Equal(t, 21, temp)
	})

	t.Run("from-message setter omits empty body", func(t *testing.T) {
		e := ForStatusCode(200).SetJSONPayloadFrom(&amqp.Message{})

		assert.NotContains(t, e.ToDocument(), FieldPayload)
	})
}

func TestCacheDirective(t *testing.T) {
	t.Run("stores textual form", func(t *testing.T) {
		d := contracts.MaxAgeDirective(300)

		e := ForStatusCode(200).SetCacheDirective(&d)

		got, ok := e.CacheDirective()
		assert.True(t, ok)
		assert.Equal(t, "max-age = 300", got)
	})

	t.Run("nil directive is omitted", func(t *testing.T) {
		e := ForStatusCode(200).SetCacheDirective(nil)

		assert.NotContains(t, e.ToDocument(), FieldCacheControl)
	})
}

func TestAppCorrelationID(t *testing.T) {
	t.Run("defaults to false when absent", func(t *testing.T) {
		e := ForStatusCode(200)

		assert.False(t, e.AppCorrelationID())
	})

	t.Run("missing annotation stores false instead of omitting", func(t *testing.T) {
		e := ForStatusCode(200).SetAppCorrelationIDFrom(&amqp.Message{})

		assert.False(t, e.AppCorrelationID())
		doc := e.ToDocument()
		assert.Contains(t, doc, FieldAppCorrelationID)
		assert.Equal(t, false, doc[FieldAppCorrelationID])
	})

	t.Run("annotation value is carried over", func(t *testing.T) {
		msg := &amqp.Message{
			Annotations: map[string]any{amqp.AnnotationAppCorrelationID: true},
		}

		e := ForStatusCode(200).SetAppCorrelationIDFrom(msg)

		assert.True(t, e.AppCorrelationID())
	})
}

func TestSetCorrelationID(t *testing.T) {
	t.Run("stores encoded identifier", func(t *testing.T) {
		e, err := ForStatusCode(200).SetCorrelationID("req-1")

		require.NoError(t, err)
		id, ok := e.CorrelationID()
		assert.True(t, ok)
		assert.Equal(t, "req-1", id)
	})

	t.Run("nil identifier is omitted", func(t *testing.T) {
		e, err := ForStatusCode(200).SetCorrelationID(nil)

		require.NoError(t, err)
		assert.NotContains(t, e.ToDocument(), FieldCorrelationID)
	})

	t.Run("rejects unsupported identifier type", func(t *testing.T) {
		_, err := ForStatusCode(200).SetCorrelationID(3.14)

		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})
}

func TestSetCorrelationIDFrom(t *testing.T) {
	t.Run("prefers the correlation id", func(t *testing.T) {
		msg := &amqp.Message{CorrelationID: "corr-1", MessageID: "msg-1"}

		e, err := ForStatusCode(200).SetCorrelationIDFrom(msg)

		require.NoError(t, err)
		id, _ := e.CorrelationID()
		assert.Equal(t, "corr-1", id)
	})

	t.Run("falls back to the message id through the codec", func(t *testing.T) {
		msg := &amqp.Message{MessageID: uint64(math.MaxUint64)}

		e, err := ForStatusCode(200).SetCorrelationIDFrom(msg)

		require.NoError(t, err)
		id, ok := e.CorrelationID()
		assert.True(t, ok)
		assert.Equal(t, uint64(math.MaxUint64), id)
	})

	t.Run("rejects message with neither id", func(t *testing.T) {
		_, err := ForStatusCode(200).SetCorrelationIDFrom(&amqp.Message{})

		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})
}

func TestCorrelationIDAccessor(t *testing.T) {
	t.Run("absent when field is missing", func(t *testing.T) {
		_, ok := ForStatusCode(200).CorrelationID()

		assert.False(t, ok)
	})

	t.Run("absent when the sub-document is malformed", func(t *testing.T) {
		e := FromDocument(contracts.Document{
			FieldCorrelationID: contracts.Document{"type": "short", "id": "1"},
		})

		_, ok := e.CorrelationID()

		assert.False(t, ok)
	})
}

func TestProperties(t *testing.T) {
	t.Run("set then read returns the value", func(t *testing.T) {
		e, err := ForStatusCode(200).SetProperty("resource-version", "42")

		require.NoError(t, err)
		v, ok := PropertyAs[string](e, "resource-version")
		assert.True(t, ok)
		assert.Equal(t, "42", v)
	})

	t.Run("nil value leaves the key absent", func(t *testing.T) {
		e, err := ForStatusCode(200).SetProperty("resource-version", nil)

		require.NoError(t, err)
		_, ok := e.Property("resource-version")
		assert.False(t, ok)
		assert.NotContains(t, e.ToDocument(), "resource-version")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := ForStatusCode(200).SetProperty("", "v")

		assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	})

	t.Run("type mismatch reads as absent", func(t *testing.T) {
		e, err := ForStatusCode(200).SetProperty("count", 7)

		require.NoError(t, err)
		_, ok := PropertyAs[string](e, "count")
		assert.False(t, ok)
	})

	t.Run("missing key reads as absent", func(t *testing.T) {
		_, ok := PropertyAs[string](ForStatusCode(200), "missing")

		assert.False(t, ok)
	})

	t.Run("string property is harvested from the message", func(t *testing.T) {
		msg := &amqp.Message{
			ApplicationProperties: map[string]any{"content-type": "application/json"},
		}

		e, err := ForStatusCode(200).SetStringProperty("content-type", msg)

		require.NoError(t, err)
		v, ok := PropertyAs[string](e, "content-type")
		assert.True(t, ok)
		assert.Equal(t, "application/json", v)
	})

	t.Run("non-string application property is omitted", func(t *testing.T) {
		msg := &amqp.Message{
			ApplicationProperties: map[string]any{"count": 7},
		}

		e, err := ForStatusCode(200).SetStringProperty("count", msg)

		require.NoError(t, err)
		assert.NotContains(t, e.ToDocument(), "count")
	})
}

func TestToDocument(t *testing.T) {
	t.Run("returned document is independent of the envelope", func(t *testing.T) {
		e := ForStatusCode(200).SetTenant("DEFAULT_TENANT").
			SetJSONPayload(contracts.Document{"temp": 21})

		doc := e.ToDocument()
		doc[FieldTenantID] = "OTHER"
		payload, _ := doc.GetDocument(FieldPayload)
		payload["temp"] = 99

		tenant, _ := e.Tenant()
		assert.Equal(t, "DEFAULT_TENANT", tenant)
		got, _ := e.JSONPayload()
		temp, _ := got.GetInt("temp")
		assert.Equal(t, 21, temp)
	})
}

func TestRequestResponseRoundTrip(t *testing.T) {
	// A request built from harvested fields must survive
	// serialization to the bus and back unchanged, including a
	// correlation id at the top of the unsigned 64-bit range.
	e, err := ForOperation("assert")
	require.NoError(t, err)
	e.SetTenant("DEFAULT_TENANT").SetDeviceID("4711")
	_, err = e.SetCorrelationID(uint64(math.MaxUint64))
	require.NoError(t, err)

	serializer := NewJSONEnvelopeSerializer()
	data, err := serializer.Serialize(e)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(data)
	require.NoError(t, err)

	op, ok := decoded.Operation()
	assert.True(t, ok)
	assert.Equal(t, "assert", op)
	tenant, _ := decoded.Tenant()
	assert.Equal(t, "DEFAULT_TENANT", tenant)
	device, _ := decoded.DeviceID()
	assert.Equal(t, "4711", device)
	id, ok := decoded.CorrelationID()
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), id)
}

func TestCorrelationIDVariantsSurviveSerialization(t *testing.T) {
	serializer := NewJSONEnvelopeSerializer()
	ids := []any{
		"text-id",
		uint64(0),
		uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff"),
		[]byte{0xde, 0xad, 0xbe, 0xef},
	}

	for _, id := range ids {
		e, err := ForStatusCode(200).SetCorrelationID(id)
		require.NoError(t, err)

		data, err := serializer.Serialize(e)
		require.NoError(t, err)
		decoded, err := serializer.Deserialize(data)
		require.NoError(t, err)

		got, ok := decoded.CorrelationID()
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}
