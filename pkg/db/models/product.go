package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Product is a catalog listing tied to a team.
type Product struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name        string               `gorm:"column:name;not null"`
	Description string               `gorm:"column:description;not null"`
	TeamID      string               `gorm:"column:team_id;type:text;not null;index"`
	Category    string               `gorm:"column:category;not null"`
	Price       decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int                  `gorm:"column:stock;not null"`
	Colors      []types.ProductColor `gorm:"column:colors;type:jsonb;serializer:json"`
	Sizes       []string             `gorm:"column:sizes;type:jsonb;serializer:json"`
	Images      []string             `gorm:"column:images;type:jsonb;serializer:json"`
	IsActive    bool                 `gorm:"column:is_active;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureUUID(&p.ID)
	return nil
}

// Color finds a colourway by id.
func (p Product) Color(id string) (types.ProductColor, bool) {
	for _, c := range p.Colors {
		if c.ID == id {
			return c, true
		}
	}
	return types.ProductColor{}, false
}

// PrimaryImage returns the first image url, if any.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
