package types

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Storefront clients read money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderItem is the snapshot of a cart line copied onto an order at creation.
type OrderItem struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	TeamID        string          `json:"teamId,omitempty"`
	Image         string          `json:"image,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	ColorID       string          `json:"colorId,omitempty"`
	ColorName     string          `json:"colorName,omitempty"`
	Size          string          `json:"size,omitempty"`
	Customization *Customization  `json:"customization,omitempty"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
}

// Customization carries jersey printing choices.
type Customization struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

// IsZero reports whether no printing was requested.
func (c *Customization) IsZero() bool {
	return c == nil || (c.Name == "" && c.Number == "")
}

// ShippingDetails is the delivery address captured at checkout.
type ShippingDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Region   string `json:"region,omitempty"`
	Location string `json:"location,omitempty"`
	Landmark string `json:"landmark,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// PaymentDetails records how an order was paid.
type PaymentDetails struct {
	Provider   string          `json:"provider"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	Channel    string          `json:"channel,omitempty"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	Currency   string          `json:"currency,omitempty"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
}

// ProductColor is one selectable colourway of a product.
type ProductColor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// CheckoutSnapshot is what the storefront hands over when a payment is
// initialised, kept so an order can be rebuilt if the return trip is lost.
type CheckoutSnapshot struct {
	OrderID          string           `json:"orderId,omitempty"`
	UserID           string           `json:"userId,omitempty"`
	Customer         CustomerContact  `json:"customer"`
	Items            []CheckoutLine   `json:"items"`
	Shipping         ShippingDetails  `json:"shipping"`
	DeliveryLocation string           `json:"deliveryLocation,omitempty"`
	ClientTotal      *decimal.Decimal `json:"clientTotal,omitempty"`
}

// CheckoutLine is a requested cart line before pricing.
type CheckoutLine struct {
	ProductID     string         `json:"productId"`
	ColorID       string         `json:"colorId,omitempty"`
	Size          string         `json:"size,omitempty"`
	Quantity      int            `json:"quantity"`
	Customization *Customization `json:"customization,omitempty"`
}

// CustomerContact identifies who receives order notifications.
type CustomerContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
