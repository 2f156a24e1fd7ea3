package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order reads and admin operations.
type Service interface {
	Get(ctx context.Context, id string) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	List(ctx context.Context, filter ListFilter) (pagination.Page[OrderDTO], error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// UpdateStatusInput drives an admin status change. Customer fields override
// the stored contact for the notification only.
type UpdateStatusInput struct {
	OrderID       string `json:"orderId" validate:"required"`
	Status        string `json:"status" validate:"required"`
	Note          string `json:"note,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	Force         bool   `json:"force,omitempty"`

	ActorUserID string `json:"-"`
	ActorRole   string `json:"-"`
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox outbox.Emitter
	// StrictTransitions enables the terminal-status guard.
	StrictTransitions bool
	Now               func() time.Time
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	strict bool
	now    func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		strict: params.StrictTransitions,
		now:    now,
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*OrderDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (pagination.Page[OrderDTO], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", filter.Status)
	}
	if _, err := pagination.ParseCursor(filter.Cursor); err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := pagination.Page[OrderDTO]{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, row := range page.Items {
		out.Items = append(out.Items, FromModel(row))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil
	})
}

// UpdateStatus moves the order to a new status, appends exactly one history
// entry and writes an order_status_changed event in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	orderID := strings.TrimSpace(input.OrderID)
	var missing []string
	if orderID == "" {
		missing = append(missing, "orderId")
	}
	if strings.TrimSpace(input.Status) == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.MissingFields(missing...)
	}
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	now := s.now().UTC()
	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = "Order status updated to " + target.Label()
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if s.strict && !input.Force {
			if err := CheckTransition(order.Status, target); err != nil {
				return err
			}
		}

		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		entry := &models.OrderStatusEntry{OrderID: order.ID, Status: target, Note: note, CreatedAt: now}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append status history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				PreviousStatus: order.Status,
				Status:         target,
				Note:           note,
				Contact:        contactFor(*order, input),
				Total:          order.Total,
				Currency:       order.Currency,
				ChangedAt:      now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit status event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

func (s *service) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	stats, err := s.repo.Stats(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order stats")
	}
	return stats, nil
}

func contactFor(order models.Order, input UpdateStatusInput) types.CustomerContact {
	contact := types.CustomerContact{
		Name:  order.CustomerName,
		Email: order.CustomerEmail,
		Phone: order.CustomerPhone,
	}
	if v := strings.TrimSpace(input.CustomerName); v != "" {
		contact.Name = v
	}
	if v := strings.TrimSpace(input.CustomerEmail); v != "" {
		contact.Email = v
	}
	if v := strings.TrimSpace(input.CustomerPhone); v != "" {
		contact.Phone = v
	}
	return contact
}

func buildActor(userID, role string) *outbox.ActorRef {
	if userID == "" && role == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
