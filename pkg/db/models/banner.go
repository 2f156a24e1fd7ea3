package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Banner is a homepage hero slide.
type Banner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	Subtitle  string    `gorm:"column:subtitle;not null"`
	ImageURL  string    `gorm:"column:image_url;not null"`
	LinkURL   string    `gorm:"column:link_url;not null"`
	Position  int       `gorm:"column:position;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Banner) BeforeCreate(*gorm.DB) error {
	ensureUUID(&b.ID)
	return nil
}
