package amqp

import (
	amqp091 "github.com/rabbitmq/amqp091-go"
)

// FromDelivery harvests an AMQP 0.9.1 delivery into a Message. The
// delivery's Type field serves as the subject and its headers as the
// application property set; the correlation-id annotation, if a
// broker or adapter put one in the headers, is lifted into the
// message annotations. 0.9.1 identifiers are always strings, so the
// identifier fields carry the string variant when set.
func FromDelivery(d amqp091.Delivery) *Message {
	msg := &Message{
		Subject:     d.Type,
		ContentType: d.ContentType,
		Payload:     d.Body,
	}
	if d.MessageId != "" {
		msg.MessageID = d.MessageId
	}
	if d.CorrelationId != "" {
		msg.CorrelationID = d.CorrelationId
	}
	if len(d.Headers) > 0 {
		msg.ApplicationProperties = make(map[string]any, len(d.Headers))
		for k, v := range d.Headers {
			if k == AnnotationAppCorrelationID {
				if msg.Annotations == nil {
					msg.Annotations = make(map[string]any, 1)
				}
				msg.Annotations[k] = v
				continue
			}
			msg.ApplicationProperties[k] = v
		}
	}
	return msg
}
