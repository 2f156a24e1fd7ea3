package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/paystack"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

var fixedNow = time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC)

const webhookSecret = "sk_test_secret"

type stubGateway struct {
	initErr      error
	transactions map[string]*paystack.Transaction
	initialized  []paystack.InitializeRequest
	verified     []string
}

func (g *stubGateway) Initialize(_ context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.initialized = append(g.initialized, req)
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *stubGateway) Verify(_ context.Context, reference string) (*paystack.Transaction, error) {
	g.verified = append(g.verified, reference)
	txn, ok := g.transactions[reference]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return txn, nil
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	gateway  *stubGateway
	catalog  *products.Repository
	sessions *SessionRepository
}

func newFixture(t *testing.T, verify bool, now func() time.Time) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	gateway := &stubGateway{transactions: map[string]*paystack.Transaction{}}
	deliverySvc, err := delivery.NewService(delivery.NewRepository(conn), decimal.NewFromInt(20))
	require.NoError(t, err)
	catalog := products.NewRepository(conn)
	sessions := NewSessionRepository(conn)

	svc, err := NewService(ServiceParams{
		Tx:       db.Wrap(conn),
		Orders:   orders.NewRepository(conn),
		Products: catalog,
		Sessions: sessions,
		Delivery: deliverySvc,
		Gateway:  gateway,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger:   logger.Nop(),
		Amounts: config.CheckoutAmounts{
			DefaultDeliveryFee: decimal.NewFromInt(20),
			TaxRate:            decimal.Zero,
			TotalTolerance:     decimal.RequireFromString("0.50"),
		},
		Currency:       "GHS",
		WebhookSecret:  webhookSecret,
		VerifyPayments: verify,
		GracePeriod:    10 * time.Minute,
		AbandonAfter:   24 * time.Hour,
		Now:            now,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, gateway: gateway, catalog: catalog, sessions: sessions}
}

func (f fixture) product(t *testing.T, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:     "Black Stars Jersey",
		TeamID:   "ghana",
		Category: "jersey",
		Price:    decimal.NewFromInt(100),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, f.catalog.Create(context.Background(), &p))
	return p
}

func (f fixture) paid(reference string, amount int64) {
	paidAt := fixedNow
	f.gateway.transactions[reference] = &paystack.Transaction{
		Status:      "success",
		Reference:   reference,
		AmountMinor: amount,
		Currency:    "GHS",
		Channel:     "mobile_money",
		PaidAt:      &paidAt,
	}
}

func orderInput(productID uuid.UUID, qty int, reference string) CreateOrderInput {
	return CreateOrderInput{
		Customer: types.CustomerContact{Name: "Yaw Boateng", Email: "Yaw@Example.com", Phone: "0244000000"},
		Items:    []types.CheckoutLine{{ProductID: productID.String(), Quantity: qty}},
		Shipping: types.ShippingDetails{
			FullName: "Yaw Boateng",
			Phone:    "0244000000",
			Address:  "12 Ring Road",
			City:     "Accra",
		},
		DeliveryLocation:  "Osu",
		PaystackReference: reference,
	}
}

func staticNow() time.Time { return fixedNow }

func TestCreateOrderFloorsStockAndEmitsEvent(t *testing.T) {
	f := newFixture(t, true, staticNow)
	ctx := context.Background()
	p := f.product(t, 3)
	f.paid("ref-1", 52000)

	res, err := f.svc.CreateOrder(ctx, orderInput(p.ID, 5, "ref-1"))
	require.NoError(t, err)
	assert.False(t, res.AlreadyExists)
	assert.Regexp(t, `^KS-20250504-[0-9a-f]{8}$`, res.OrderID)
	require.NotNil(t, res.Order)
	assert.True(t, res.Order.Total.Equal(decimal.NewFromInt(520)))
	assert.Equal(t, "yaw@example.com", res.Order.CustomerEmail)
	assert.Equal(t, "paid", res.Order.Payment.Status)
	require.Len(t, res.Order.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusSubmitted, res.Order.StatusHistory[0].Status)

	stored, err := f.catalog.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
	assert.Equal(t, res.OrderID, events[0].AggregateID)
}

func TestCreateOrderIsIdempotentByReference(t *testing.T) {
	f := newFixture(t, true, staticNow)
	ctx := context.Background()
	p := f.product(t, 10)
	f.paid("ref-2", 12000)

	first, err := f.svc.CreateOrder(ctx, orderInput(p.ID, 1, "ref-2"))
	require.NoError(t, err)

	second, err := f.svc.CreateOrder(ctx, orderInput(p.ID, 1, "ref-2"))
	require.NoError(t, err)
	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.OrderID, second.OrderID)

	var count int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Len(t, f.gateway.verified, 1)
}

func TestCreateOrderReportsMissingFields(t *testing.T) {
	f := newFixture(t, false, staticNow)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{Customer: types.CustomerContact{Name: "A"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, []string{"customer.email", "items", "paystackReference", "shipping.address", "shipping.city"}, details["missing_fields"])
}

func TestCreateOrderRejectsTotalDrift(t *testing.T) {
	f := newFixture(t, false, staticNow)
	p := f.product(t, 10)
	input := orderInput(p.ID, 1, "ref-3")
	clientTotal := decimal.NewFromInt(100)
	input.Total = &clientTotal

	_, err := f.svc.CreateOrder(context.Background(), input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, "120.00", details["serverTotal"])

	stored, err := f.catalog.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestCreateOrderRejectsUnpaidAndUnderpaid(t *testing.T) {
	f := newFixture(t, true, staticNow)
	ctx := context.Background()
	p := f.product(t, 10)

	_, err := f.svc.CreateOrder(ctx, orderInput(p.ID, 1, "ref-unknown"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	f.gateway.transactions["ref-failed"] = &paystack.Transaction{Status: "failed", Reference: "ref-failed"}
	_, err = f.svc.CreateOrder(ctx, orderInput(p.ID, 1, "ref-failed"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.paid("ref-short", 5000)
	_, err = f.svc.CreateOrder(ctx, orderInput(p.ID, 1, "ref-short"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderSuppliedIDCollision(t *testing.T) {
	f := newFixture(t, false, staticNow)
	ctx := context.Background()
	p := f.product(t, 10)

	first := orderInput(p.ID, 1, "ref-a")
	first.OrderID = "KS-CLIENT-1"
	_, err := f.svc.CreateOrder(ctx, first)
	require.NoError(t, err)

	second := orderInput(p.ID, 1, "ref-b")
	second.OrderID = "KS-CLIENT-1"
	_, err = f.svc.CreateOrder(ctx, second)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateOrderAwaitingPaymentSkipsVerify(t *testing.T) {
	f := newFixture(t, true, staticNow)
	p := f.product(t, 10)
	input := orderInput(p.ID, 1, "")
	input.Status = "awaiting_payment"

	res, err := f.svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAwaitingPayment, res.Order.Status)
	assert.Equal(t, "pending", res.Order.Payment.Status)
	assert.Empty(t, f.gateway.verified)
}

func TestInitializePayment(t *testing.T) {
	f := newFixture(t, false, staticNow)
	ctx := context.Background()

	res, err := f.svc.InitializePayment(ctx, InitializeInput{
		Email:    "buyer@example.com",
		Amount:   decimal.RequireFromString("120.5"),
		OrderID:  "KS-CLIENT-9",
		Checkout: &types.CheckoutSnapshot{OrderID: "KS-CLIENT-9"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AuthorizationURL)
	require.Len(t, f.gateway.initialized, 1)
	assert.Equal(t, "GHS", f.gateway.initialized[0].Currency)
	assert.Equal(t, "KS-CLIENT-9", f.gateway.initialized[0].Metadata["order_id"])

	session, err := f.sessions.FindByReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionInitialized, session.Status)
	require.NotNil(t, session.Checkout)

	_, err = f.svc.InitializePayment(ctx, InitializeInput{Email: "not-an-email", Amount: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.InitializePayment(ctx, InitializeInput{Email: "a@b.co", Amount: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	f.gateway.initErr = errors.New("connection refused")
	_, err = f.svc.InitializePayment(ctx, InitializeInput{Email: "a@b.co", Amount: decimal.NewFromInt(5)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, gatewayUnavailableMessage, pkgerrors.As(err).Message())
}

func TestHandleWebhookMarksSessionPaid(t *testing.T) {
	f := newFixture(t, false, staticNow)
	ctx := context.Background()
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-hook",
		Email:     "buyer@example.com",
		Amount:    decimal.NewFromInt(120),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
	}))

	body := []byte(`{"event":"charge.success","data":{"reference":"ref-hook","status":"success","amount":12000,"currency":"GHS","channel":"card"}}`)

	err := f.svc.HandleWebhook(ctx, body, "bad-signature")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, f.svc.HandleWebhook(ctx, body, paystack.Sign(webhookSecret, body)))
	session, err := f.sessions.FindByReference(ctx, "ref-hook")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionPaid, session.Status)
	require.NotNil(t, session.GatewayChannel)
	assert.Equal(t, "card", *session.GatewayChannel)

	// A replayed webhook changes nothing.
	require.NoError(t, f.svc.HandleWebhook(ctx, body, paystack.Sign(webhookSecret, body)))
	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventPaymentConfirmed).Count(&events).Error)
	assert.Equal(t, int64(1), events)

	other := []byte(`{"event":"transfer.success","data":{"reference":"x"}}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, other, paystack.Sign(webhookSecret, other)))
}

func TestReconcilePaymentsBuildsMissingOrders(t *testing.T) {
	later := func() time.Time { return time.Now().Add(time.Hour) }
	f := newFixture(t, false, later)
	ctx := context.Background()
	p := f.product(t, 10)
	paidAt := time.Now().UTC()

	snapshot := &types.CheckoutSnapshot{
		OrderID:  "KS-SNAP-1",
		Customer: types.CustomerContact{Name: "Esi", Email: "esi@example.com"},
		Items:    []types.CheckoutLine{{ProductID: p.ID.String(), Quantity: 2}},
		Shipping: types.ShippingDetails{Address: "4 Oxford St", City: "Accra"},
	}
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-lost",
		Email:     "esi@example.com",
		Amount:    decimal.NewFromInt(220),
		Currency:  "GHS",
		Status:    enums.PaymentSessionPaid,
		PaidAt:    &paidAt,
		Checkout:  snapshot,
	}))
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-pending",
		Email:     "kwame@example.com",
		Amount:    decimal.NewFromInt(220),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
		Checkout: &types.CheckoutSnapshot{
			Customer: types.CustomerContact{Name: "Kwame", Email: "kwame@example.com"},
			Items:    []types.CheckoutLine{{ProductID: p.ID.String(), Quantity: 1}},
			Shipping: types.ShippingDetails{Address: "1 High St", City: "Tema"},
		},
	}))
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-failed",
		Email:     "ama@example.com",
		Amount:    decimal.NewFromInt(50),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
	}))
	f.paid("ref-pending", 12000)
	f.gateway.transactions["ref-failed"] = &paystack.Transaction{Status: "failed", Reference: "ref-failed"}

	report, err := f.svc.ReconcilePayments(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.OrdersCreated)
	assert.Equal(t, 1, report.MarkedPaid)
	assert.Equal(t, 1, report.MarkedFailed)

	order, err := orders.NewRepository(f.conn).FindByPaystackReference(ctx, "ref-lost")
	require.NoError(t, err)
	assert.Equal(t, "KS-SNAP-1", order.ID)

	session, err := f.sessions.FindByReference(ctx, "ref-lost")
	require.NoError(t, err)
	require.NotNil(t, session.OrderCreatedAt)

	failed, err := f.sessions.FindByReference(ctx, "ref-failed")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionFailed, failed.Status)

	again, err := f.svc.ReconcilePayments(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, again.OrdersCreated)
}

func paidSession(reference string, createdAt time.Time, snapshot *types.CheckoutSnapshot) *models.PaymentSession {
	paidAt := createdAt
	return &models.PaymentSession{
		Reference: reference,
		Email:     "buyer@example.com",
		Amount:    decimal.NewFromInt(520),
		Currency:  "GHS",
		Status:    enums.PaymentSessionPaid,
		PaidAt:    &paidAt,
		Checkout:  snapshot,
		CreatedAt: createdAt,
	}
}

func snapshotFor(productID string, qty int) *types.CheckoutSnapshot {
	return &types.CheckoutSnapshot{
		Customer: types.CustomerContact{Name: "Akosua", Email: "akosua@example.com"},
		Items:    []types.CheckoutLine{{ProductID: productID, Quantity: qty}},
		Shipping: types.ShippingDetails{Address: "7 Liberation Rd", City: "Accra"},
	}
}

func TestReconcilePaymentsParksUnderpaidSession(t *testing.T) {
	later := func() time.Time { return time.Now().Add(time.Hour) }
	f := newFixture(t, true, later)
	ctx := context.Background()
	p := f.product(t, 10)

	// The customer initialised 1.00 against a 520.00 basket and paid it.
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-short",
		Email:     "akosua@example.com",
		Amount:    decimal.NewFromInt(1),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
		Checkout:  snapshotFor(p.ID.String(), 5),
	}))
	f.paid("ref-short", 100)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-short","status":"success","amount":100,"currency":"GHS","channel":"card"}}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, body, paystack.Sign(webhookSecret, body)))

	_, err := f.svc.CreateOrder(ctx, orderInput(p.ID, 5, "ref-short"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	report, err := f.svc.ReconcilePayments(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, report.OrdersCreated)
	assert.Equal(t, 1, report.NeedsReview)

	_, err = orders.NewRepository(f.conn).FindByPaystackReference(ctx, "ref-short")
	assert.True(t, db.IsNotFound(err))

	session, err := f.sessions.FindByReference(ctx, "ref-short")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionNeedsReview, session.Status)
	require.NotNil(t, session.AmountPaid)
	assert.True(t, session.AmountPaid.Equal(decimal.NewFromInt(1)))
	require.NotNil(t, session.LastError)
	assert.Contains(t, *session.LastError, "amount paid does not cover")

	reloaded, err := f.catalog.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)

	again, err := f.svc.ReconcilePayments(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, again.NeedsReview)
}

func TestReconcilePaymentsParksBrokenSnapshotsWithoutStarvingNewerSessions(t *testing.T) {
	later := func() time.Time { return time.Now().Add(time.Hour) }
	f := newFixture(t, false, later)
	ctx := context.Background()
	p := f.product(t, 10)
	base := time.Now().UTC().Add(-time.Hour)

	noAddress := snapshotFor(p.ID.String(), 1)
	noAddress.Shipping.Address = ""

	require.NoError(t, f.sessions.Create(ctx, paidSession("ref-bad-0", base, snapshotFor(uuid.NewString(), 1))))
	require.NoError(t, f.sessions.Create(ctx, paidSession("ref-bad-1", base.Add(time.Second), snapshotFor(uuid.NewString(), 1))))
	require.NoError(t, f.sessions.Create(ctx, paidSession("ref-no-address", base.Add(2*time.Second), noAddress)))
	require.NoError(t, f.sessions.Create(ctx, paidSession("ref-empty", base.Add(3*time.Second), nil)))
	good := paidSession("ref-good", base.Add(4*time.Second), snapshotFor(p.ID.String(), 5))
	require.NoError(t, f.sessions.Create(ctx, good))

	var parked, created int
	for i := 0; i < 3; i++ {
		report, err := f.svc.ReconcilePayments(ctx, 2)
		require.NoError(t, err)
		parked += report.NeedsReview
		created += report.OrdersCreated
	}
	assert.Equal(t, 4, parked)
	assert.Equal(t, 1, created)

	order, err := orders.NewRepository(f.conn).FindByPaystackReference(ctx, "ref-good")
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(520)))
	assert.Equal(t, string(enums.PaymentStatusPaid), order.Payment.Status)
	assert.True(t, order.Payment.AmountPaid.Equal(decimal.NewFromInt(520)))

	for ref, reason := range map[string]string{
		"ref-bad-0":      "not found",
		"ref-bad-1":      "not found",
		"ref-no-address": "shipping.address",
		"ref-empty":      "no checkout snapshot",
	} {
		session, err := f.sessions.FindByReference(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentSessionNeedsReview, session.Status, ref)
		require.NotNil(t, session.LastError, ref)
		assert.Contains(t, *session.LastError, reason, ref)
		assert.Nil(t, session.OrderCreatedAt, ref)
	}
}

func TestReconcilePaymentsAbandonsUnknownStaleSessions(t *testing.T) {
	f := newFixture(t, false, staticNow)
	ctx := context.Background()

	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-ancient",
		Email:     "kofi@example.com",
		Amount:    decimal.NewFromInt(80),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
		CreatedAt: fixedNow.Add(-48 * time.Hour),
	}))
	require.NoError(t, f.sessions.Create(ctx, &models.PaymentSession{
		Reference: "ref-recent",
		Email:     "kofi@example.com",
		Amount:    decimal.NewFromInt(80),
		Currency:  "GHS",
		Status:    enums.PaymentSessionInitialized,
		CreatedAt: fixedNow.Add(-time.Hour),
	}))

	report, err := f.svc.ReconcilePayments(ctx, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify ref-recent")
	assert.Equal(t, 1, report.Abandoned)
	assert.ElementsMatch(t, []string{"ref-ancient", "ref-recent"}, f.gateway.verified)

	ancient, err := f.sessions.FindByReference(ctx, "ref-ancient")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionAbandoned, ancient.Status)

	recent, err := f.sessions.FindByReference(ctx, "ref-recent")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentSessionInitialized, recent.Status)
}
