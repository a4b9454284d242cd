package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/hivemesh/hivemesh-go/messaging"
)

const (
	metadataCorrelationID = "correlation_id"
	metadataReplyTo       = "reply_to"

	defaultReplyTopic     = "hivemesh.replies"
	defaultRequestTimeout = 30 * time.Second
)

// Handler processes a request envelope and returns the response to
// publish back to the requester, or nil when no response is due.
type Handler func(ctx context.Context, request *messaging.Envelope) *messaging.Envelope

// Bus moves serialized envelopes between services over an in-process
// publish/subscribe channel. It offers fire-and-forget publishing
// and a synchronous request/response round trip paired through a
// per-request transport correlation key.
type Bus struct {
	pubSub     *gochannel.GoChannel
	serializer messaging.EnvelopeSerializer
	logger     *slog.Logger

	replyTopic     string
	defaultTimeout time.Duration

	mu        sync.Mutex
	pending   map[string]chan *messaging.Envelope
	replyOnce sync.Once
	replyErr  error

	closed chan struct{}
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used by the bus and its pub/sub
// internals.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithReplyTopic sets the topic responses to Request calls are
// delivered on.
func WithReplyTopic(topic string) BusOption {
	return func(b *Bus) {
		b.replyTopic = topic
	}
}

// WithRequestTimeout sets the default timeout for Request round
// trips. A deadline on the request context takes precedence.
func WithRequestTimeout(timeout time.Duration) BusOption {
	return func(b *Bus) {
		b.defaultTimeout = timeout
	}
}

// NewBus creates an in-process bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		serializer:     messaging.NewJSONEnvelopeSerializer(),
		logger:         slog.Default(),
		replyTopic:     defaultReplyTopic,
		defaultTimeout: defaultRequestTimeout,
		pending:        make(map[string]chan *messaging.Envelope),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pubSub = gochannel.NewGoChannel(gochannel.Config{}, NewSlogLoggerAdapter(b.logger))
	return b
}

// Publish serializes the envelope and publishes it on the topic.
func (b *Bus) Publish(ctx context.Context, topic string, envelope *messaging.Envelope) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	data, err := b.serializer.Serialize(envelope)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes request envelopes from the topic and runs the
// handler for each. When the handler returns a response and the
// request named a reply topic, the response is published there with
// the request's transport correlation key.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			b.handleRequest(ctx, topic, msg, handler)
		}
	}()
	return nil
}

func (b *Bus) handleRequest(ctx context.Context, topic string, msg *message.Message, handler Handler) {
	defer msg.Ack()

	envelope, err := b.serializer.Deserialize(msg.Payload)
	if err != nil {
		b.logger.Error("discarding undecodable envelope",
			"topic", topic,
			"messageId", msg.UUID,
			"error", err)
		return
	}

	response := handler(ctx, envelope)
	if response == nil {
		return
	}

	replyTo := msg.Metadata.Get(metadataReplyTo)
	if replyTo == "" {
		b.logger.Debug("dropping response for request without reply topic",
			"topic", topic,
			"messageId", msg.UUID)
		return
	}

	data, err := b.serializer.Serialize(response)
	if err != nil {
		b.logger.Error("failed to serialize response envelope",
			"topic", topic,
			"messageId", msg.UUID,
			"error", err)
		return
	}
	reply := message.NewMessage(watermill.NewUUID(), data)
	reply.Metadata.Set(metadataCorrelationID, msg.Metadata.Get(metadataCorrelationID))
	if err := b.pubSub.Publish(replyTo, reply); err != nil {
		b.logger.Error("failed to publish response envelope",
			"topic", replyTo,
			"messageId", msg.UUID,
			"error", err)
	}
}

// Request publishes a request envelope and waits for the matching
// response. Matching uses a per-request transport key carried in the
// message metadata, so it works regardless of which correlation
// identifier variant the envelope itself carries.
func (b *Bus) Request(ctx context.Context, topic string, envelope *messaging.Envelope) (*messaging.Envelope, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if err := b.ensureReplySubscription(); err != nil {
		return nil, err
	}

	data, err := b.serializer.Serialize(envelope)
	if err != nil {
		return nil, err
	}

	requestID := watermill.NewUUID()
	responseCh := make(chan *messaging.Envelope, 1)

	b.mu.Lock()
	b.pending[requestID] = responseCh
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, requestID)
		b.mu.Unlock()
	}()

	msg := message.NewMessage(requestID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set(metadataCorrelationID, requestID)
	msg.Metadata.Set(metadataReplyTo, b.replyTopic)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		return nil, fmt.Errorf("failed to publish request to %s: %w", topic, err)
	}

	timeout := b.defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case response := <-responseCh:
		return response, nil
	case <-timer.C:
		return nil, fmt.Errorf("request on %s timed out after %v", topic, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.closed:
		return nil, fmt.Errorf("bus is closed")
	}
}

// ensureReplySubscription lazily starts the single consumer that
// routes response envelopes back to their pending requests.
func (b *Bus) ensureReplySubscription() error {
	b.replyOnce.Do(func() {
		messages, err := b.pubSub.Subscribe(context.Background(), b.replyTopic)
		if err != nil {
			b.replyErr = fmt.Errorf("failed to subscribe to reply topic %s: %w", b.replyTopic, err)
			return
		}
		go b.consumeReplies(messages)
	})
	return b.replyErr
}

func (b *Bus) consumeReplies(messages <-chan *message.Message) {
	for msg := range messages {
		requestID := msg.Metadata.Get(metadataCorrelationID)

		b.mu.Lock()
		responseCh, ok := b.pending[requestID]
		if ok {
			delete(b.pending, requestID)
		}
		b.mu.Unlock()

		if !ok {
			b.logger.Debug("dropping response with no pending request",
				"messageId", msg.UUID,
				"requestId", requestID)
			msg.Ack()
			continue
		}

		envelope, err := b.serializer.Deserialize(msg.Payload)
		if err != nil {
			b.logger.Error("discarding undecodable response envelope",
				"messageId", msg.UUID,
				"error", err)
			msg.Ack()
			continue
		}
		responseCh <- envelope
		msg.Ack()
	}
}

// Close shuts the bus down and fails all pending requests.
func (b *Bus) Close() error {
	close(b.closed)
	return b.pubSub.Close()
}
