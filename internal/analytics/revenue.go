package analytics

import (
	"context"
	"fmt"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

const (
	defaultRevenueWindow = 30 * 24 * time.Hour
	maxRevenueWindow     = 366 * 24 * time.Hour
)

// Revenue counts each order once, at creation, and drops orders whose latest
// recorded status is cancelled.
const dailyRevenueSQL = `
WITH created AS (
  SELECT order_id, occurred_at, total_minor
  FROM %[1]s
  WHERE event_type = 'order_created'
    AND status != 'awaiting_payment'
    AND occurred_at BETWEEN @start AND @end
),
cancelled AS (
  SELECT order_id
  FROM %[1]s
  WHERE event_type = 'order_status_changed'
  QUALIFY ROW_NUMBER() OVER (PARTITION BY order_id ORDER BY occurred_at DESC) = 1
    AND status = 'cancelled'
)
SELECT
  FORMAT_DATE('%%F', DATE(occurred_at)) AS day,
  COUNT(DISTINCT order_id) AS orders,
  SUM(total_minor) AS revenue_minor
FROM created
WHERE order_id NOT IN (SELECT order_id FROM cancelled)
GROUP BY day
ORDER BY day ASC
`

// RevenueRequest bounds a revenue query. Zero values default to the last 30 days.
type RevenueRequest struct {
	From time.Time
	To   time.Time
}

// RevenuePoint is one day of revenue.
type RevenuePoint struct {
	Day     string          `json:"day"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RevenueReport is returned by the admin analytics endpoint.
type RevenueReport struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Total  decimal.Decimal `json:"total"`
	Orders int64           `json:"orders"`
	Days   []RevenuePoint  `json:"days"`
}

type querier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
	TableRef(table string) string
}

// RevenueService reads daily revenue from the warehouse.
type RevenueService interface {
	DailyRevenue(ctx context.Context, req RevenueRequest) (*RevenueReport, error)
}

type revenueService struct {
	client querier
	table  string
	now    func() time.Time
}

// NewRevenueService builds a RevenueService over the orders table.
func NewRevenueService(client querier, table string) (RevenueService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if table == "" {
		return nil, fmt.Errorf("orders table required")
	}
	return &revenueService{client: client, table: table, now: time.Now}, nil
}

func (s *revenueService) DailyRevenue(ctx context.Context, req RevenueRequest) (*RevenueReport, error) {
	from, to, err := normalizeWindow(req, s.now().UTC())
	if err != nil {
		return nil, err
	}

	it, err := s.client.Query(ctx, fmt.Sprintf(dailyRevenueSQL, s.client.TableRef(s.table)), []cloudbigquery.QueryParameter{
		{Name: "start", Value: from},
		{Name: "end", Value: to},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "analytics query failed")
	}

	report := &RevenueReport{From: from, To: to, Days: []RevenuePoint{}}
	for {
		var row struct {
			Day          string `bigquery:"day"`
			Orders       int64  `bigquery:"orders"`
			RevenueMinor int64  `bigquery:"revenue_minor"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "analytics query failed")
		}
		point := RevenuePoint{
			Day:     row.Day,
			Orders:  row.Orders,
			Revenue: decimal.New(row.RevenueMinor, -2),
		}
		report.Days = append(report.Days, point)
		report.Orders += point.Orders
		report.Total = report.Total.Add(point.Revenue)
	}
	return report, nil
}

func normalizeWindow(req RevenueRequest, now time.Time) (time.Time, time.Time, error) {
	to := req.To.UTC()
	if req.To.IsZero() {
		to = now
	}
	from := req.From.UTC()
	if req.From.IsZero() {
		from = to.Add(-defaultRevenueWindow)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	if to.Sub(from) > maxRevenueWindow {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date range cannot exceed 366 days")
	}
	return from, to, nil
}
