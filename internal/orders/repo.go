package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with the history entries it carries.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func preloadHistory(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("StatusHistory", preloadHistory).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaystackReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("StatusHistory", preloadHistory).
		First(&order, "paystack_reference = ?", reference).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	limit := pagination.NormalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(id) LIKE ? OR LOWER(customer_email) LIKE ? OR LOWER(customer_name) LIKE ?)", like, like, like)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("StatusHistory", preloadHistory).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return pagination.Page[models.Order]{Items: rows, NextCursor: next}, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("StatusHistory", preloadHistory).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Delete removes the order and its history. Run it inside a transaction.
func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	if err := r.db.WithContext(ctx).Delete(&models.OrderStatusEntry{}, "order_id = ?", id).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	var rows []struct {
		Status  enums.OrderStatus
		Count   int64
		Revenue decimal.Decimal
	}
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue")
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &Stats{Revenue: decimal.Zero, ByStatus: make(map[enums.OrderStatus]int64, len(rows))}
	for _, row := range rows {
		stats.TotalOrders += row.Count
		stats.ByStatus[row.Status] = row.Count
		if row.Status == enums.OrderStatusCancelled || row.Status == enums.OrderStatusAwaitingPayment {
			continue
		}
		stats.Revenue = stats.Revenue.Add(row.Revenue)
	}
	return stats, nil
}
