package checkout

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/internal/delivery"
	"github.com/angelmondragon/kitstore-backend/internal/orders"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox"
	"github.com/angelmondragon/kitstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/kitstore-backend/pkg/paystack"
	"github.com/angelmondragon/kitstore-backend/pkg/types"
)

const gatewayUnavailableMessage = "Payment service is temporarily unavailable. Please try again shortly."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentGateway is the subset of the Paystack client checkout drives.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type deliveryQuoter interface {
	Quote(ctx context.Context, location string) (delivery.Quote, error)
}

// Service orchestrates payment initialisation, order creation and the
// Paystack webhook.
type Service interface {
	InitializePayment(ctx context.Context, input InitializeInput) (*InitializeResult, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	ReconcilePayments(ctx context.Context, limit int) (ReconcileReport, error)
}

// InitializeInput starts a Paystack transaction.
type InitializeInput struct {
	Email       string                  `json:"email" validate:"required,email"`
	Amount      decimal.Decimal         `json:"amount"`
	Currency    string                  `json:"currency,omitempty"`
	CallbackURL string                  `json:"callbackUrl,omitempty"`
	OrderID     string                  `json:"orderId,omitempty"`
	Metadata    map[string]any          `json:"metadata,omitempty"`
	Checkout    *types.CheckoutSnapshot `json:"checkout,omitempty"`
}

// InitializeResult is returned to the storefront to redirect the customer.
type InitializeResult struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode"`
	Reference        string `json:"reference"`
}

// CreateOrderInput is the storefront's order submission.
type CreateOrderInput struct {
	OrderID           string                `json:"orderId,omitempty"`
	Customer          types.CustomerContact `json:"customer"`
	Items             []types.CheckoutLine  `json:"items"`
	Shipping          types.ShippingDetails `json:"shipping"`
	DeliveryLocation  string                `json:"deliveryLocation,omitempty"`
	PaystackReference string                `json:"paystackReference,omitempty"`
	Total             *decimal.Decimal      `json:"total,omitempty"`
	Status            string                `json:"status,omitempty"`
	Notes             string                `json:"notes,omitempty"`

	UserID *uuid.UUID `json:"-"`
}

// CreateOrderResult reports the order id and whether it pre-existed.
type CreateOrderResult struct {
	OrderID       string           `json:"orderId"`
	AlreadyExists bool             `json:"alreadyExists"`
	Order         *orders.OrderDTO `json:"order,omitempty"`
}

// ServiceParams bundles checkout dependencies and settings.
type ServiceParams struct {
	Tx       txRunner
	Orders   orders.Repository
	Products *products.Repository
	Sessions *SessionRepository
	Delivery deliveryQuoter
	Gateway  PaymentGateway
	Outbox   outbox.Emitter
	Logger   *logger.Logger

	Amounts        config.CheckoutAmounts
	Currency       string
	CallbackURL    string
	WebhookSecret  string
	VerifyPayments bool
	GracePeriod    time.Duration
	AbandonAfter   time.Duration
	Now            func() time.Time
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	products *products.Repository
	sessions *SessionRepository
	delivery deliveryQuoter
	gateway  PaymentGateway
	outbox   outbox.Emitter
	logg     *logger.Logger

	amounts        config.CheckoutAmounts
	currency       string
	callbackURL    string
	webhookSecret  string
	verifyPayments bool
	gracePeriod    time.Duration
	abandonAfter   time.Duration
	now            func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("payment session repository required")
	case params.Delivery == nil:
		return nil, fmt.Errorf("delivery quoter required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "GHS"
	}
	return &service{
		tx:             params.Tx,
		orders:         params.Orders,
		products:       params.Products,
		sessions:       params.Sessions,
		delivery:       params.Delivery,
		gateway:        params.Gateway,
		outbox:         params.Outbox,
		logg:           params.Logger,
		amounts:        params.Amounts,
		currency:       currency,
		callbackURL:    params.CallbackURL,
		webhookSecret:  params.WebhookSecret,
		verifyPayments: params.VerifyPayments,
		gracePeriod:    params.GracePeriod,
		abandonAfter:   params.AbandonAfter,
		now:            now,
	}, nil
}

func (s *service) InitializePayment(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.MissingFields("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is not valid")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.currency
	}
	callback := strings.TrimSpace(input.CallbackURL)
	if callback == "" {
		callback = s.callbackURL
	}

	reference := NewPaymentReference()
	metadata := map[string]any{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	if input.OrderID != "" {
		metadata["order_id"] = input.OrderID
	}

	res, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      input.Amount.Round(2),
		Currency:    currency,
		Reference:   reference,
		CallbackURL: callback,
		Metadata:    metadata,
	})
	if err != nil {
		s.logError(ctx, "paystack initialize failed", err, map[string]any{"reference": reference})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, gatewayUnavailableMessage)
	}
	if res.Reference != "" {
		reference = res.Reference
	}

	session := &models.PaymentSession{
		Reference:        reference,
		Email:            email,
		Amount:           input.Amount.Round(2),
		Currency:         currency,
		Status:           enums.PaymentSessionInitialized,
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
		Checkout:         input.Checkout,
	}
	if id := strings.TrimSpace(input.OrderID); id != "" {
		session.OrderID = &id
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment session")
	}

	return &InitializeResult{
		AuthorizationURL: res.AuthorizationURL,
		AccessCode:       res.AccessCode,
		Reference:        reference,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	status, err := initialStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if missing := missingFields(input, status); len(missing) > 0 {
		return nil, pkgerrors.MissingFields(missing...)
	}
	reference := strings.TrimSpace(input.PaystackReference)

	if reference != "" {
		if existing, err := s.orders.FindByPaystackReference(ctx, reference); err == nil {
			return &CreateOrderResult{OrderID: existing.ID, AlreadyExists: true}, nil
		} else if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing order")
		}
	}

	payment := types.PaymentDetails{Provider: "paystack", Reference: reference, Currency: s.currency}
	var paid *paystack.Transaction
	switch {
	case status == enums.OrderStatusAwaitingPayment:
		payment.Status = string(enums.PaymentStatusPending)
	case s.verifyPayments:
		txn, err := s.gateway.Verify(ctx, reference)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference not recognised")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, gatewayUnavailableMessage)
		}
		if !txn.Successful() {
			return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "payment has not completed (status %s)", txn.Status)
		}
		paid = txn
	default:
		payment.Status = string(enums.PaymentStatusUnverified)
	}
	if paid != nil {
		payment = paymentFromTransaction(paid, s.now())
	}

	return s.createOrder(ctx, input, status, payment, paid)
}

// createOrder prices and persists the order in one transaction. paid, when
// set, is the verified gateway transaction the total must be covered by.
func (s *service) createOrder(ctx context.Context, input CreateOrderInput, status enums.OrderStatus, payment types.PaymentDetails, paid *paystack.Transaction) (*CreateOrderResult, error) {
	reference := strings.TrimSpace(input.PaystackReference)
	location := input.DeliveryLocation
	if strings.TrimSpace(location) == "" {
		location = input.Shipping.Location
	}
	fee, err := s.delivery.Quote(ctx, location)
	if err != nil {
		return nil, err
	}
	ids, err := ProductIDs(input.Items)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		orderID = NewOrderID(now)
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		catalog, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}
		quote, err := Price(input.Items, catalog, fee.Price, s.amounts.TaxRate)
		if err != nil {
			return err
		}
		if err := CheckClientTotal(input.Total, quote.Total, s.amounts.TotalTolerance); err != nil {
			return err
		}
		if paid != nil && paid.Amount().Add(s.amounts.TotalTolerance).LessThan(quote.Total) {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount paid does not cover the order total").
				WithDetails(map[string]any{
					"amountPaid":  paid.Amount().StringFixed(2),
					"serverTotal": quote.Total.StringFixed(2),
				})
		}

		if _, err := orderRepo.GetByID(ctx, orderID); err == nil {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "order %s already exists", orderID)
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order id")
		}

		order := &models.Order{
			ID:               orderID,
			UserID:           input.UserID,
			CustomerName:     strings.TrimSpace(input.Customer.Name),
			CustomerEmail:    strings.ToLower(strings.TrimSpace(input.Customer.Email)),
			CustomerPhone:    strings.TrimSpace(firstNonEmpty(input.Customer.Phone, input.Shipping.Phone)),
			Status:           status,
			Items:            quote.Items,
			Shipping:         input.Shipping,
			Payment:          payment,
			DeliveryLocation: fee.Location,
			Subtotal:         quote.Subtotal,
			ShippingCost:     quote.ShippingCost,
			Tax:              quote.Tax,
			Total:            quote.Total,
			Currency:         s.currency,
			StatusHistory: []models.OrderStatusEntry{{
				Status:    status,
				Note:      "Order placed",
				CreatedAt: now,
			}},
		}
		if reference != "" {
			order.PaystackReference = &reference
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			order.Notes = &notes
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return err
		}

		for _, item := range quote.Items {
			id, _ := uuid.Parse(item.ProductID)
			if err := productRepo.DecrementStockFloor(ctx, id, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
		}

		if reference != "" {
			if err := s.sessions.WithTx(tx).MarkOrderCreated(ctx, reference, order.ID, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link payment session")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:           order.ID,
				UserID:            userIDString(order.UserID),
				Status:            order.Status,
				CustomerEmail:     order.CustomerEmail,
				DeliveryLocation:  order.DeliveryLocation,
				PaystackReference: reference,
				ItemCount:         quote.ItemCount,
				Subtotal:          order.Subtotal,
				ShippingCost:      order.ShippingCost,
				Tax:               order.Tax,
				Total:             order.Total,
				Currency:          order.Currency,
				CreatedAt:         now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order event")
		}
		created = order
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if db.IsUniqueViolation(err, "") {
			return s.resolveDuplicate(ctx, reference, orderID, err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, created.ID), "order created")
	}
	dto := orders.FromModel(*created)
	return &CreateOrderResult{OrderID: created.ID, Order: &dto}, nil
}

// resolveDuplicate handles a unique violation raised by a concurrent insert:
// the same payment reference is idempotent, a reused id is a conflict.
func (s *service) resolveDuplicate(ctx context.Context, reference, orderID string, cause error) (*CreateOrderResult, error) {
	if reference != "" {
		if existing, err := s.orders.FindByPaystackReference(ctx, reference); err == nil {
			return &CreateOrderResult{OrderID: existing.ID, AlreadyExists: true}, nil
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, cause, fmt.Sprintf("order %s already exists", orderID))
}

func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.webhookSecret == "" || !paystack.VerifySignature(s.webhookSecret, body, signature) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}
	evt, err := paystack.ParseWebhook(body)
	if err != nil {
		return err
	}
	if evt.Event != paystack.EventChargeSuccess {
		return nil
	}
	_, err = s.markPaid(ctx, &evt.Data)
	return err
}

// markPaid records a successful charge on its session and emits
// payment_confirmed. Unknown references are ignored.
func (s *service) markPaid(ctx context.Context, txn *paystack.Transaction) (bool, error) {
	reference := strings.TrimSpace(txn.Reference)
	if reference == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference missing")
	}
	paidAt := s.now().UTC()
	if txn.PaidAt != nil {
		paidAt = txn.PaidAt.UTC()
	}

	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sessions := s.sessions.WithTx(tx)
		session, err := sessions.FindByReference(ctx, reference)
		if err != nil {
			if db.IsNotFound(err) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment session")
		}
		changed, err = sessions.MarkPaid(ctx, reference, paidAt, txn.Channel, txn.Amount())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark session paid")
		}
		if !changed {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePaymentSession,
			AggregateID:   reference,
			OccurredAt:    paidAt,
			Data: payloads.PaymentConfirmedEvent{
				Reference: reference,
				OrderID:   session.OrderID,
				Email:     session.Email,
				Amount:    txn.Amount(),
				Currency:  firstNonEmpty(txn.Currency, session.Currency),
				Channel:   txn.Channel,
				PaidAt:    paidAt,
			},
		})
	})
	if err != nil {
		return false, err
	}
	if changed && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "reference", reference), "payment session marked paid")
	}
	return changed, nil
}

func initialStatus(raw string) (enums.OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.OrderStatusSubmitted, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if status != enums.OrderStatusSubmitted && status != enums.OrderStatusAwaitingPayment {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "orders cannot be created as %s", status)
	}
	return status, nil
}

func missingFields(input CreateOrderInput, status enums.OrderStatus) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("customer.name", input.Customer.Name)
	check("customer.email", input.Customer.Email)
	check("shipping.address", input.Shipping.Address)
	check("shipping.city", input.Shipping.City)
	if len(input.Items) == 0 {
		missing = append(missing, "items")
	}
	if status != enums.OrderStatusAwaitingPayment {
		check("paystackReference", input.PaystackReference)
	}
	return missing
}

func paymentFromTransaction(txn *paystack.Transaction, now time.Time) types.PaymentDetails {
	paidAt := now.UTC()
	if txn.PaidAt != nil {
		paidAt = txn.PaidAt.UTC()
	}
	return types.PaymentDetails{
		Provider:   "paystack",
		Reference:  txn.Reference,
		Status:     string(enums.PaymentStatusPaid),
		Channel:    txn.Channel,
		AmountPaid: txn.Amount(),
		Currency:   txn.Currency,
		PaidAt:     &paidAt,
	}
}

func userIDString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (s *service) logError(ctx context.Context, msg string, err error, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithFields(ctx, fields), msg, err)
}
