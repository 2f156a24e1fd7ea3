package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
)

// Repository wires product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// FindByID loads a product regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the listed products keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// List pages products newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Product], error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	limit := pagination.NormalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	switch {
	case !filter.IncludeInactive:
		query = query.Where("is_active = ?", true)
	case filter.Active != nil:
		query = query.Where("is_active = ?", *filter.Active)
	}
	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		query = query.Where("team_id = ?", teamID)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return pagination.Page[models.Product]{}, err
	}
	rows, next := pagination.Trim(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID.String()}
	})
	return pagination.Page[models.Product]{Items: rows, NextCursor: next}, nil
}

// ListActiveByTeam returns every active product for a team, by name.
func (r *Repository) ListActiveByTeam(ctx context.Context, teamID string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND is_active = ?", teamID, true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// Delete removes a product. It reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// AdjustStock applies delta to stock, never going below zero, and returns the new level.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("CASE WHEN stock + ? > 0 THEN stock + ? ELSE 0 END", delta, delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var stock int
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Pluck("stock", &stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}

// DecrementStockFloor takes qty off a product's stock, clamping at zero.
func (r *Repository) DecrementStockFloor(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", qty, qty)).Error
}

// ListLowStock returns active products at or below threshold, lowest first.
func (r *Repository) ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC").
		Order("name ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}
