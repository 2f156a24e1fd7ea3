package delivery

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByLocation expects an already normalised location.
func (r *Repository) FindByLocation(ctx context.Context, location string) (*models.DeliveryPrice, error) {
	var row models.DeliveryPrice
	if err := r.db.WithContext(ctx).First(&row, "location = ?", location).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.DeliveryPrice, error) {
	q := r.db.WithContext(ctx).Order("label ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.DeliveryPrice
	return rows, q.Find(&rows).Error
}

// Upsert writes the row keyed by location, replacing the mutable columns.
func (r *Repository) Upsert(ctx context.Context, row *models.DeliveryPrice) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "price", "estimated_days", "is_active", "updated_at"}),
	}).Create(row).Error
}

func (r *Repository) Delete(ctx context.Context, location string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.DeliveryPrice{}, "location = ?", location)
	return res.RowsAffected > 0, res.Error
}
