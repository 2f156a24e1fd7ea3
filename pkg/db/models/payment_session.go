package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// PaymentSession follows a Paystack transaction from initialise until an
// order exists for it.
type PaymentSession struct {
	Reference        string                     `gorm:"column:reference;type:text;primaryKey"`
	OrderID          *string                    `gorm:"column:order_id;type:text;index"`
	Email            string                     `gorm:"column:email;not null"`
	Amount           decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string                     `gorm:"column:currency;not null"`
	Status           enums.PaymentSessionStatus `gorm:"column:status;type:text;not null;index"`
	AuthorizationURL string                     `gorm:"column:authorization_url;not null"`
	AccessCode       string                     `gorm:"column:access_code;not null"`
	Checkout         *types.CheckoutSnapshot    `gorm:"column:checkout;type:jsonb;serializer:json"`
	GatewayChannel   *string                    `gorm:"column:gateway_channel"`
	AmountPaid       *decimal.Decimal           `gorm:"column:amount_paid;type:numeric(12,2)"`
	LastError        *string                    `gorm:"column:last_error"`
	PaidAt           *time.Time                 `gorm:"column:paid_at"`
	OrderCreatedAt   *time.Time                 `gorm:"column:order_created_at"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
