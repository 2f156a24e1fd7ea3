package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
)

// SessionRepository persists payment_sessions.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{db: tx}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.PaymentSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByReference(ctx context.Context, reference string) (*models.PaymentSession, error) {
	var row models.PaymentSession
	if err := r.db.WithContext(ctx).First(&row, "reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkPaid flips a session to paid and records the settled amount. Sessions
// already paid keep their first paid_at. It reports whether a row changed.
func (r *SessionRepository) MarkPaid(ctx context.Context, reference string, paidAt time.Time, channel string, amountPaid decimal.Decimal) (bool, error) {
	updates := map[string]any{
		"status":      enums.PaymentSessionPaid,
		"paid_at":     paidAt,
		"amount_paid": amountPaid,
	}
	if channel != "" {
		updates["gateway_channel"] = channel
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("reference = ? AND status <> ?", reference, enums.PaymentSessionPaid).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *SessionRepository) MarkStatus(ctx context.Context, reference string, status enums.PaymentSessionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("reference = ?", reference).
		Update("status", status).Error
}

// MarkNeedsReview parks a paid session the sweep cannot turn into an order so
// later sweeps skip it.
func (r *SessionRepository) MarkNeedsReview(ctx context.Context, reference, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("reference = ? AND order_created_at IS NULL", reference).
		Updates(map[string]any{
			"status":     enums.PaymentSessionNeedsReview,
			"last_error": reason,
		}).Error
}

// MarkOrderCreated links the session to the order built from it.
func (r *SessionRepository) MarkOrderCreated(ctx context.Context, reference, orderID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("reference = ?", reference).
		Updates(map[string]any{"order_id": orderID, "order_created_at": at}).Error
}

// ListPaidWithoutOrder returns paid sessions older than cutoff that never
// produced an order.
func (r *SessionRepository) ListPaidWithoutOrder(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentSession, error) {
	var rows []models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND order_created_at IS NULL AND updated_at < ?", enums.PaymentSessionPaid, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListStaleInitialized returns sessions still initialized since before cutoff.
func (r *SessionRepository) ListStaleInitialized(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentSession, error) {
	var rows []models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.PaymentSessionInitialized, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
