package analytics

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/registry"
)

const consumerName = "analytics"

type eventDecoder interface {
	Decode(eventType string, body []byte) (*registry.ResolvedEvent, error)
}

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type rowWriter interface {
	Insert(ctx context.Context, row OrderEventRow) error
}

// ConsumerParams wires the analytics consumer.
type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Registry     eventDecoder
	Idempotency  processedTracker
	Writer       rowWriter
	Logger       *logger.Logger
}

// Consumer writes order facts delivered on the analytics subscription.
type Consumer struct {
	subscription *pubsub.Subscriber
	registry     eventDecoder
	idempotency  processedTracker
	writer       rowWriter
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Registry == nil {
		return nil, errors.New("event registry required")
	}
	if params.Idempotency == nil {
		return nil, errors.New("idempotency manager required")
	}
	if params.Writer == nil {
		return nil, errors.New("analytics writer required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Consumer{
		subscription: params.Subscription,
		registry:     params.Registry,
		idempotency:  params.Idempotency,
		writer:       params.Writer,
		logg:         params.Logger,
	}, nil
}

// Run receives until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return errors.New("analytics subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		ctx = c.logg.WithField(ctx, "message_id", msg.ID)
		if c.Handle(ctx, msg.Attributes["event_type"], msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Handle reports whether the message should be acked. Write failures release
// the idempotency marker and nack so the insert is retried on redelivery.
func (c *Consumer) Handle(ctx context.Context, eventType string, body []byte) bool {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	if eventType != string(enums.EventOrderCreated) && eventType != string(enums.EventOrderStatusChanged) {
		return true
	}

	resolved, err := c.registry.Decode(eventType, body)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode analytics event", err)
		var nonRetryable registry.NonRetryableError
		return errors.As(err, &nonRetryable)
	}
	eventID := resolved.Envelope.EventID
	logCtx = c.logg.WithField(logCtx, "event_id", eventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "analytics event already processed")
		return true
	}

	row, err := buildRow(resolved)
	if err != nil {
		c.logg.Error(logCtx, "failed to build analytics row", err)
		return true
	}
	logCtx = c.logg.WithOrderID(logCtx, row.OrderID)

	if err := c.writer.Insert(ctx, row); err != nil {
		c.logg.Error(logCtx, "failed to write analytics row", err)
		if releaseErr := c.idempotency.Release(ctx, consumerName, eventID); releaseErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency marker", releaseErr)
		}
		return false
	}
	c.logg.Info(logCtx, "analytics row written")
	return true
}

func buildRow(resolved *registry.ResolvedEvent) (OrderEventRow, error) {
	switch payload := resolved.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		return OrderCreatedRow(resolved.Envelope, *payload)
	case *payloads.OrderStatusChangedEvent:
		return StatusChangedRow(resolved.Envelope, *payload)
	default:
		return OrderEventRow{}, fmt.Errorf("unsupported payload %T", resolved.Payload)
	}
}
