package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// ListFilter narrows the admin order list.
type ListFilter struct {
	Status enums.OrderStatus
	Search string
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Cursor string
	Limit  int
}

// Stats aggregates orders created since a point in time. Revenue excludes
// cancelled orders and orders still awaiting payment.
type Stats struct {
	TotalOrders int64                       `json:"totalOrders"`
	Revenue     decimal.Decimal             `json:"revenue"`
	ByStatus    map[enums.OrderStatus]int64 `json:"byStatus"`
}

// StatusEntryDTO is one element of statusHistory.
type StatusEntryDTO struct {
	Status    enums.OrderStatus `json:"status"`
	Label     string            `json:"label"`
	Timestamp time.Time         `json:"timestamp"`
	Note      string            `json:"note"`
}

// OrderDTO is the order as returned by the API.
type OrderDTO struct {
	ID                string                `json:"id"`
	UserID            *string               `json:"userId,omitempty"`
	CustomerName      string                `json:"customerName"`
	CustomerEmail     string                `json:"customerEmail"`
	CustomerPhone     string                `json:"customerPhone"`
	Status            enums.OrderStatus     `json:"status"`
	StatusLabel       string                `json:"statusLabel"`
	IsShipping        bool                  `json:"isShipping"`
	Items             []types.OrderItem     `json:"items"`
	Shipping          types.ShippingDetails `json:"shipping"`
	Payment           types.PaymentDetails  `json:"payment"`
	PaystackReference *string               `json:"paystackReference,omitempty"`
	DeliveryLocation  string                `json:"deliveryLocation"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	ShippingCost      decimal.Decimal       `json:"shippingCost"`
	Tax               decimal.Decimal       `json:"tax"`
	Total             decimal.Decimal       `json:"total"`
	Currency          string                `json:"currency"`
	Notes             *string               `json:"notes,omitempty"`
	StatusHistory     []StatusEntryDTO      `json:"statusHistory"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// FromModel maps an order with its preloaded history.
func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                o.ID,
		CustomerName:      o.CustomerName,
		CustomerEmail:     o.CustomerEmail,
		CustomerPhone:     o.CustomerPhone,
		Status:            o.Status,
		StatusLabel:       o.Status.Label(),
		IsShipping:        o.Status.IsShipping(),
		Items:             o.Items,
		Shipping:          o.Shipping,
		Payment:           o.Payment,
		PaystackReference: o.PaystackReference,
		DeliveryLocation:  o.DeliveryLocation,
		Subtotal:          o.Subtotal,
		ShippingCost:      o.ShippingCost,
		Tax:               o.Tax,
		Total:             o.Total,
		Currency:          o.Currency,
		Notes:             o.Notes,
		StatusHistory:     make([]StatusEntryDTO, 0, len(o.StatusHistory)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.UserID != nil {
		id := o.UserID.String()
		dto.UserID = &id
	}
	if dto.Items == nil {
		dto.Items = []types.OrderItem{}
	}
	for _, entry := range o.StatusHistory {
		dto.StatusHistory = append(dto.StatusHistory, StatusEntryDTO{
			Status:    entry.Status,
			Label:     entry.Status.Label(),
			Timestamp: entry.CreatedAt,
			Note:      entry.Note,
		})
	}
	return dto
}
