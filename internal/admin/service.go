package admin

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/kitstore-backend/internal/analytics"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/internal/users"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
)

const (
	defaultLowStockThreshold = 5
	lowStockLimit            = 10
	recentWindow             = 30 * 24 * time.Hour
)

// Dashboard is the admin landing payload.
type Dashboard struct {
	AllTime     orders.Stats          `json:"allTime"`
	Last30Days  orders.Stats          `json:"last30Days"`
	Customers   int64                 `json:"customers"`
	LowStock    []products.ProductDTO `json:"lowStock"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

type orderStats interface {
	Stats(ctx context.Context, since time.Time) (*orders.Stats, error)
}

type customerDirectory interface {
	CountByRole(ctx context.Context, role enums.UserRole) (int64, error)
	ListCustomers(ctx context.Context, cursor *pagination.Cursor, limit int) (pagination.Page[users.CustomerSummary], error)
}

type stockReader interface {
	ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
}

// Service backs the admin dashboard, customer list and revenue analytics.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Customers(ctx context.Context, cursor string, limit int) (pagination.Page[users.CustomerSummary], error)
	Revenue(ctx context.Context, req analytics.RevenueRequest) (*analytics.RevenueReport, error)
}

// ServiceParams wires the admin service. Revenue is optional; when nil the
// analytics endpoint reports the warehouse as unavailable.
type ServiceParams struct {
	Orders            orderStats
	Users             customerDirectory
	Products          stockReader
	Revenue           analytics.RevenueService
	LowStockThreshold int
	Now               func() time.Time
}

type service struct {
	orders    orderStats
	users     customerDirectory
	products  stockReader
	revenue   analytics.RevenueService
	threshold int
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, errors.New("orders stats required")
	}
	if params.Users == nil {
		return nil, errors.New("users repository required")
	}
	if params.Products == nil {
		return nil, errors.New("products repository required")
	}
	threshold := params.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		orders:    params.Orders,
		users:     params.Users,
		products:  params.Products,
		revenue:   params.Revenue,
		threshold: threshold,
		now:       now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now().UTC()

	allTime, err := s.orders.Stats(ctx, time.Time{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order stats")
	}
	recent, err := s.orders.Stats(ctx, now.Add(-recentWindow))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order stats")
	}
	customers, err := s.users.CountByRole(ctx, enums.UserRoleCustomer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count customers")
	}
	low, err := s.products.ListLowStock(ctx, s.threshold, lowStockLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load low stock products")
	}

	lowStock := make([]products.ProductDTO, 0, len(low))
	for _, p := range low {
		lowStock = append(lowStock, products.FromModel(p))
	}
	return &Dashboard{
		AllTime:     *allTime,
		Last30Days:  *recent,
		Customers:   customers,
		LowStock:    lowStock,
		GeneratedAt: now,
	}, nil
}

func (s *service) Customers(ctx context.Context, cursor string, limit int) (pagination.Page[users.CustomerSummary], error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return pagination.Page[users.CustomerSummary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.users.ListCustomers(ctx, parsed, limit)
	if err != nil {
		return pagination.Page[users.CustomerSummary]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	return page, nil
}

func (s *service) Revenue(ctx context.Context, req analytics.RevenueRequest) (*analytics.RevenueReport, error) {
	if s.revenue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics is not configured")
	}
	return s.revenue.DailyRevenue(ctx, req)
}
