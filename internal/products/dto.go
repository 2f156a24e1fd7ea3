package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// ProductDTO is the public product shape.
type ProductDTO struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	TeamID      string               `json:"teamId"`
	Category    string               `json:"category"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int                  `json:"stock"`
	InStock     bool                 `json:"inStock"`
	Colors      []types.ProductColor `json:"colors"`
	Sizes       []string             `json:"sizes"`
	Images      []string             `json:"images"`
	IsActive    bool                 `json:"isActive"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// CreateProductInput is the admin create payload.
type CreateProductInput struct {
	Name        string               `json:"name" validate:"required,max=200"`
	Description string               `json:"description" validate:"max=4000"`
	TeamID      string               `json:"teamId" validate:"required"`
	Category    string               `json:"category" validate:"required,max=60"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int                  `json:"stock" validate:"gte=0"`
	Colors      []types.ProductColor `json:"colors" validate:"dive"`
	Sizes       []string             `json:"sizes"`
	Images      []string             `json:"images" validate:"dive,url"`
	IsActive    *bool                `json:"isActive,omitempty"`
}

// UpdateProductInput is the admin patch payload; nil fields are left alone.
type UpdateProductInput struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=4000"`
	TeamID      *string               `json:"teamId,omitempty"`
	Category    *string               `json:"category,omitempty" validate:"omitempty,max=60"`
	Price       *decimal.Decimal      `json:"price,omitempty"`
	Stock       *int                  `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Colors      *[]types.ProductColor `json:"colors,omitempty"`
	Sizes       *[]string             `json:"sizes,omitempty"`
	Images      *[]string             `json:"images,omitempty"`
	IsActive    *bool                 `json:"isActive,omitempty"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	TeamID          string
	Category        string
	Search          string
	IncludeInactive bool
	// Active narrows an IncludeInactive listing to one visibility state.
	Active          *bool
	Cursor          string
	Limit           int
}

// FromModel maps a product row to its DTO.
func FromModel(p models.Product) ProductDTO {
	colors := p.Colors
	if colors == nil {
		colors = []types.ProductColor{}
	}
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TeamID:      p.TeamID,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Colors:      colors,
		Sizes:       sizes,
		Images:      images,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, FromModel(p))
	}
	return out
}
