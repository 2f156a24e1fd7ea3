package banners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns banners by position. Inactive rows are included only when asked.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.Banner, error) {
	q := r.db.WithContext(ctx).Order("position ASC").Order("created_at ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Banner
	return rows, q.Find(&rows).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	var row models.Banner
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, banner *models.Banner) error {
	return r.db.WithContext(ctx).Create(banner).Error
}

func (r *Repository) Save(ctx context.Context, banner *models.Banner) error {
	return r.db.WithContext(ctx).Save(banner).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Banner{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
