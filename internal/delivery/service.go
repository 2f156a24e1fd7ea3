package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

// Quote is the delivery fee for a location. IsDefault is set when the
// location has no active price and the configured fallback was used.
type Quote struct {
	Location      string          `json:"location"`
	Label         string          `json:"label"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"estimatedDays,omitempty"`
	IsDefault     bool            `json:"isDefault"`
}

type PriceDTO struct {
	ID            string          `json:"id"`
	Location      string          `json:"location"`
	Label         string          `json:"label"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"estimatedDays"`
	IsActive      bool            `json:"isActive"`
}

type UpsertInput struct {
	Location      string          `json:"location" validate:"required"`
	Label         string          `json:"label"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"estimatedDays" validate:"gte=0"`
	IsActive      *bool           `json:"isActive"`
}

type Service interface {
	Quote(ctx context.Context, location string) (Quote, error)
	List(ctx context.Context, includeInactive bool) ([]PriceDTO, error)
	Upsert(ctx context.Context, input UpsertInput) (*PriceDTO, error)
	Delete(ctx context.Context, location string) error
}

type service struct {
	repo       *Repository
	defaultFee decimal.Decimal
}

func NewService(repo *Repository, defaultFee decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	return &service{repo: repo, defaultFee: defaultFee}, nil
}

// NormalizeLocation lowercases and collapses whitespace so "  East  Legon" and
// "east legon" share a row.
func NormalizeLocation(location string) string {
	return strings.ToLower(strings.Join(strings.Fields(location), " "))
}

func (s *service) Quote(ctx context.Context, location string) (Quote, error) {
	key := NormalizeLocation(location)
	fallback := Quote{Location: key, Label: "Standard delivery", Price: s.defaultFee, IsDefault: true}
	if key == "" {
		return fallback, nil
	}
	row, err := s.repo.FindByLocation(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return fallback, nil
		}
		return Quote{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery price")
	}
	if !row.IsActive {
		return fallback, nil
	}
	return Quote{
		Location:      row.Location,
		Label:         row.Label,
		Price:         row.Price,
		EstimatedDays: row.EstimatedDays,
	}, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]PriceDTO, error) {
	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery prices")
	}
	out := make([]PriceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) (*PriceDTO, error) {
	key := NormalizeLocation(input.Location)
	if key == "" {
		return nil, pkgerrors.MissingFields("location")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.EstimatedDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimatedDays must not be negative")
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = strings.Join(strings.Fields(input.Location), " ")
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	row := &models.DeliveryPrice{
		Location:      key,
		Label:         label,
		Price:         input.Price.Round(2),
		EstimatedDays: input.EstimatedDays,
		IsActive:      active,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save delivery price")
	}
	stored, err := s.repo.FindByLocation(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload delivery price")
	}
	dto := fromModel(*stored)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, location string) error {
	found, err := s.repo.Delete(ctx, NormalizeLocation(location))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete delivery price")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery price not found")
	}
	return nil
}

func fromModel(row models.DeliveryPrice) PriceDTO {
	return PriceDTO{
		ID:            row.ID.String(),
		Location:      row.Location,
		Label:         row.Label,
		Price:         row.Price,
		EstimatedDays: row.EstimatedDays,
		IsActive:      row.IsActive,
	}
}
