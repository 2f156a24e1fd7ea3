package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Order is a placed order. Items, shipping and payment are snapshots taken at
// checkout; StatusHistory is append-only.
type Order struct {
	ID                string                `gorm:"column:id;type:text;primaryKey"`
	UserID            *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	CustomerName      string                `gorm:"column:customer_name;not null"`
	CustomerEmail     string                `gorm:"column:customer_email;not null;index"`
	CustomerPhone     string                `gorm:"column:customer_phone;not null"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null;index"`
	Items             []types.OrderItem     `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Shipping          types.ShippingDetails `gorm:"column:shipping;type:jsonb;serializer:json;not null"`
	Payment           types.PaymentDetails  `gorm:"column:payment;type:jsonb;serializer:json;not null"`
	PaystackReference *string               `gorm:"column:paystack_reference;uniqueIndex"`
	DeliveryLocation  string                `gorm:"column:delivery_location;not null"`
	Subtotal          decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost      decimal.Decimal       `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Tax               decimal.Decimal       `gorm:"column:tax;type:numeric(12,2);not null"`
	Total             decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	Currency          string                `gorm:"column:currency;not null"`
	Notes             *string               `gorm:"column:notes"`
	StatusHistory     []OrderStatusEntry    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderStatusEntry is one element of an order's status history.
type OrderStatusEntry struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   string            `gorm:"column:order_id;type:text;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Note      string            `gorm:"column:note;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;not null"`
}

func (OrderStatusEntry) TableName() string {
	return "order_status_history"
}
