package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

// Service is the catalog product surface.
type Service interface {
	List(ctx context.Context, filter ListFilter) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	ListByTeam(ctx context.Context, teamID string) ([]ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the product service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[ProductDTO], error) {
	if _, err := pagination.ParseCursor(filter.Cursor); err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return pagination.Page[ProductDTO]{Items: fromModels(page.Items), NextCursor: page.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) ListByTeam(ctx context.Context, teamID string) ([]ProductDTO, error) {
	rows, err := s.repo.ListActiveByTeam(ctx, teamID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list team products")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateColors(input.Colors); err != nil {
		return nil, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		TeamID:      strings.TrimSpace(input.TeamID),
		Category:    strings.TrimSpace(input.Category),
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Colors:      input.Colors,
		Sizes:       input.Sizes,
		Images:      input.Images,
		IsActive:    active,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Colors != nil {
		if err := validateColors(*input.Colors); err != nil {
			return nil, err
		}
	}
	applyUpdate(product, input)
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := FromModel(*product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error) {
	if _, err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust stock")
	}
	return s.Get(ctx, id, true)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.TeamID != nil {
		product.TeamID = strings.TrimSpace(*input.TeamID)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Colors != nil {
		product.Colors = *input.Colors
	}
	if input.Sizes != nil {
		product.Sizes = *input.Sizes
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	return nil
}

func validateColors(colors []types.ProductColor) error {
	seen := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "color id is required")
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate color id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
