package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/payloads"
)

// OrderEventRow mirrors the order_events BigQuery schema. Money columns hold
// minor units (pesewas).
type OrderEventRow struct {
	EventID          string             `bigquery:"event_id"`
	EventType        string             `bigquery:"event_type"`
	OccurredAt       time.Time          `bigquery:"occurred_at"`
	OrderID          string             `bigquery:"order_id"`
	UserID           *string            `bigquery:"user_id"`
	Status           string             `bigquery:"status"`
	PreviousStatus   *string            `bigquery:"previous_status"`
	DeliveryLocation *string            `bigquery:"delivery_location"`
	ItemCount        *int64             `bigquery:"item_count"`
	SubtotalMinor    *int64             `bigquery:"subtotal_minor"`
	ShippingMinor    *int64             `bigquery:"shipping_minor"`
	TaxMinor         *int64             `bigquery:"tax_minor"`
	TotalMinor       int64              `bigquery:"total_minor"`
	Currency         string             `bigquery:"currency"`
	Payload          cbigquery.NullJSON `bigquery:"payload"`
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func minorPtr(amount decimal.Decimal) *int64 {
	v := toMinor(amount)
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func occurredAt(env outbox.PayloadEnvelope, fallback time.Time) time.Time {
	if !env.OccurredAt.IsZero() {
		return env.OccurredAt.UTC()
	}
	return fallback.UTC()
}

// OrderCreatedRow projects an order_created event onto the warehouse schema.
func OrderCreatedRow(env outbox.PayloadEnvelope, event payloads.OrderCreatedEvent) (OrderEventRow, error) {
	payload, err := encodeJSON(event)
	if err != nil {
		return OrderEventRow{}, err
	}
	items := int64(event.ItemCount)
	return OrderEventRow{
		EventID:          env.EventID,
		EventType:        "order_created",
		OccurredAt:       occurredAt(env, event.CreatedAt),
		OrderID:          event.OrderID,
		UserID:           event.UserID,
		Status:           string(event.Status),
		DeliveryLocation: strPtr(event.DeliveryLocation),
		ItemCount:        &items,
		SubtotalMinor:    minorPtr(event.Subtotal),
		ShippingMinor:    minorPtr(event.ShippingCost),
		TaxMinor:         minorPtr(event.Tax),
		TotalMinor:       toMinor(event.Total),
		Currency:         event.Currency,
		Payload:          payload,
	}, nil
}

// StatusChangedRow projects an order_status_changed event. Contact details
// are left out of the stored payload.
func StatusChangedRow(env outbox.PayloadEnvelope, event payloads.OrderStatusChangedEvent) (OrderEventRow, error) {
	payload, err := encodeJSON(map[string]any{
		"note":           event.Note,
		"previousStatus": event.PreviousStatus,
		"status":         event.Status,
	})
	if err != nil {
		return OrderEventRow{}, err
	}
	return OrderEventRow{
		EventID:        env.EventID,
		EventType:      "order_status_changed",
		OccurredAt:     occurredAt(env, event.ChangedAt),
		OrderID:        event.OrderID,
		Status:         string(event.Status),
		PreviousStatus: strPtr(string(event.PreviousStatus)),
		TotalMinor:     toMinor(event.Total),
		Currency:       event.Currency,
		Payload:        payload,
	}, nil
}

func encodeJSON(payload any) (cbigquery.NullJSON, error) {
	if payload == nil {
		return cbigquery.NullJSON{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
