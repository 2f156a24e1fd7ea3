package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their status history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	FindByPaystackReference(ctx context.Context, reference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status enums.OrderStatus) error
	AppendHistory(ctx context.Context, entry *models.OrderStatusEntry) error
	List(ctx context.Context, filter ListFilter) (pagination.Page[models.Order], error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
