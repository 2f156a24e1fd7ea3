package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
)

// Repository persists signed-in carts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListByUser returns a user's lines in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads one of the user's lines.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	if err := r.db.WithContext(ctx).First(&row, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert inserts the line or, when (user, product, colour, size) already
// exists, adds its quantity to the stored one.
func (r *Repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "color_id"}, {Name: "size"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":      gorm.Expr("cart_items.quantity + excluded.quantity"),
			"customization": gorm.Expr("COALESCE(excluded.customization, cart_items.customization)"),
			"updated_at":    gorm.Expr("excluded.updated_at"),
		}),
	}).Create(item).Error
}

// UpdateQuantity sets a line's quantity. It reports whether the line existed.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("quantity", quantity)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ? AND user_id = ?", id, userID)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "user_id = ?", userID).Error
}
