package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the customer-visible stage of an order.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusSubmitted       OrderStatus = "submitted"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusInTransit       OrderStatus = "in_transit"
	OrderStatusOutForDelivery  OrderStatus = "out_for_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusSubmitted,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusAwaitingPayment: "Awaiting Payment",
	OrderStatusSubmitted:       "Submitted",
	OrderStatusConfirmed:       "Confirmed",
	OrderStatusProcessing:      "Processing",
	OrderStatusInTransit:       "In Transit",
	OrderStatusOutForDelivery:  "Out for Delivery",
	OrderStatusDelivered:       "Delivered",
	OrderStatusCancelled:       "Cancelled",
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), validOrderStatuses...)
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// Label is the human-readable form used in notifications.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further progress is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsShipping groups the two equivalent "on the way" stages.
func (s OrderStatus) IsShipping() bool {
	return s == OrderStatusInTransit || s == OrderStatusOutForDelivery
}

// ParseOrderStatus converts raw input into an OrderStatus. Input is trimmed,
// lowercased and may use spaces or dashes ("Out for delivery").
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
