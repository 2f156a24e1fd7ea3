package notifications

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/registry"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

const consumerName = "order-notifications"

type orderLoader interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

type eventDecoder interface {
	Decode(eventType string, body []byte) (*registry.ResolvedEvent, error)
}

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Release(ctx context.Context, consumer, eventID string) error
}

type notifier interface {
	OrderConfirmation(ctx context.Context, order models.Order)
	StatusChanged(ctx context.Context, order models.Order, contact types.CustomerContact, note string)
}

// ConsumerParams wires the notification consumer.
type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Orders       orderLoader
	Registry     eventDecoder
	Idempotency  processedTracker
	Dispatcher   notifier
	Logger       *logger.Logger
}

// Consumer turns order events into customer notifications.
type Consumer struct {
	subscription *pubsub.Subscriber
	orders       orderLoader
	registry     eventDecoder
	idempotency  processedTracker
	dispatcher   notifier
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: params.Subscription,
		orders:       params.Orders,
		registry:     params.Registry,
		idempotency:  params.Idempotency,
		dispatcher:   params.Dispatcher,
		logg:         params.Logger,
	}, nil
}

// Run receives from the subscription until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("notification subscription required")
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

// Handle processes one delivered event and reports whether it should be acked.
// Only infrastructure failures before dispatch cause a nack; dispatch itself
// never fails.
func (c *Consumer) Handle(ctx context.Context, eventType string, body []byte) bool {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	if eventType != string(enums.EventOrderCreated) && eventType != string(enums.EventOrderStatusChanged) {
		c.logg.Debug(logCtx, "skipping event without notifications")
		return true
	}

	resolved, err := c.registry.Decode(eventType, body)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode event", err)
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
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	switch payload := resolved.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		order, ok := c.loadOrder(ctx, logCtx, payload.OrderID, eventID)
		if order == nil {
			return ok
		}
		c.dispatcher.OrderConfirmation(logCtx, *order)
	case *payloads.OrderStatusChangedEvent:
		order, ok := c.loadOrder(ctx, logCtx, payload.OrderID, eventID)
		if order == nil {
			return ok
		}
		order.Status = payload.Status
		c.dispatcher.StatusChanged(logCtx, *order, payload.Contact, payload.Note)
	}
	return true
}

// loadOrder returns the order, or nil plus the ack decision when it cannot be
// loaded. A missing order is acked; a read failure releases the marker and
// nacks for redelivery.
func (c *Consumer) loadOrder(ctx, logCtx context.Context, orderID, eventID string) (*models.Order, bool) {
	logCtx = c.logg.WithOrderID(logCtx, orderID)
	order, err := c.orders.GetByID(ctx, orderID)
	if err == nil {
		return order, true
	}
	if db.IsNotFound(err) {
		c.logg.Warn(logCtx, "order not found for notification")
		return nil, true
	}
	c.logg.Error(logCtx, "failed to load order", err)
	if releaseErr := c.idempotency.Release(ctx, consumerName, eventID); releaseErr != nil {
		c.logg.Error(logCtx, "failed to release idempotency marker", releaseErr)
	}
	return nil, false
}
