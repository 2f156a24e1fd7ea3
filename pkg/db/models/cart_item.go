package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// CartItem is one line of a signed-in customer's persisted cart.
// ColorID is empty when the product has no colour choice.
type CartItem struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:cart_items_line_key"`
	ProductID     uuid.UUID            `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_line_key"`
	ColorID       string               `gorm:"column:color_id;not null;uniqueIndex:cart_items_line_key"`
	Size          string               `gorm:"column:size;not null;uniqueIndex:cart_items_line_key"`
	Quantity      int                  `gorm:"column:quantity;not null"`
	Customization *types.Customization `gorm:"column:customization;type:jsonb;serializer:json"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	ensureUUID(&c.ID)
	return nil
}
