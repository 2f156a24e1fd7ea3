package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// OrderCreatedEvent is emitted in the create-order transaction. Notification
// consumers reload the order; analytics reads the figures carried here.
type OrderCreatedEvent struct {
	OrderID           string            `json:"orderId"`
	UserID            *string           `json:"userId,omitempty"`
	Status            enums.OrderStatus `json:"status"`
	CustomerEmail     string            `json:"customerEmail"`
	DeliveryLocation  string            `json:"deliveryLocation"`
	PaystackReference string            `json:"paystackReference,omitempty"`
	ItemCount         int               `json:"itemCount"`
	Subtotal          decimal.Decimal   `json:"subtotal"`
	ShippingCost      decimal.Decimal   `json:"shippingCost"`
	Tax               decimal.Decimal   `json:"tax"`
	Total             decimal.Decimal   `json:"total"`
	Currency          string            `json:"currency"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// OrderStatusChangedEvent is emitted in the status update transaction. Contact
// carries caller-supplied overrides for the notification recipient.
type OrderStatusChangedEvent struct {
	OrderID        string                `json:"orderId"`
	PreviousStatus enums.OrderStatus     `json:"previousStatus"`
	Status         enums.OrderStatus     `json:"status"`
	Note           string                `json:"note"`
	Contact        types.CustomerContact `json:"contact"`
	Total          decimal.Decimal       `json:"total"`
	Currency       string                `json:"currency"`
	ChangedAt      time.Time             `json:"changedAt"`
}

// PaymentConfirmedEvent is emitted when a payment session flips to paid.
type PaymentConfirmedEvent struct {
	Reference string          `json:"reference"`
	OrderID   *string         `json:"orderId,omitempty"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Channel   string          `json:"channel,omitempty"`
	PaidAt    time.Time       `json:"paidAt"`
}
