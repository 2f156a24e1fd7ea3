package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryPrice is the flat delivery fee for a location. Location is stored normalised.
type DeliveryPrice struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Location      string          `gorm:"column:location;not null;uniqueIndex"`
	Label         string          `gorm:"column:label;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	EstimatedDays int             `gorm:"column:estimated_days;not null"`
	IsActive      bool            `gorm:"column:is_active;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *DeliveryPrice) BeforeCreate(*gorm.DB) error {
	ensureUUID(&d.ID)
	return nil
}
