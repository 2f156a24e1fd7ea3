package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/paystack"
)

// ReconcileReport summarises one payment reconciliation sweep.
type ReconcileReport struct {
	OrdersCreated int `json:"ordersCreated"`
	Linked        int `json:"linked"`
	MarkedPaid    int `json:"markedPaid"`
	MarkedFailed  int `json:"markedFailed"`
	Abandoned     int `json:"abandoned"`
	NeedsReview   int `json:"needsReview"`
	Skipped       int `json:"skipped"`
}

// ReconcilePayments repairs sessions whose return trip was lost. Stale
// initialized sessions are verified with Paystack (and get their order at once
// when paid), then paid sessions with no order past the grace period get one
// built from their checkout snapshot. Sessions that can never become an order
// are parked as needs_review; other failures are collected and do not stop
// the sweep.
func (s *service) ReconcilePayments(ctx context.Context, limit int) (ReconcileReport, error) {
	var report ReconcileReport
	if limit <= 0 {
		limit = 50
	}
	now := s.now().UTC()
	cutoff := now.Add(-s.gracePeriod)

	var errs error

	stale, err := s.sessions.ListStaleInitialized(ctx, cutoff, limit)
	if err != nil {
		return report, fmt.Errorf("list stale sessions: %w", err)
	}
	for _, session := range stale {
		errs = multierr.Append(errs, s.verifySession(ctx, session, &report))
	}

	pending, err := s.sessions.ListPaidWithoutOrder(ctx, cutoff, limit)
	if err != nil {
		return report, multierr.Append(errs, fmt.Errorf("list paid sessions: %w", err))
	}
	for _, session := range pending {
		errs = multierr.Append(errs, s.createFromSession(ctx, session, &report))
	}
	return report, errs
}

func (s *service) verifySession(ctx context.Context, session models.PaymentSession, report *ReconcileReport) error {
	age := s.now().Sub(session.CreatedAt)
	txn, err := s.gateway.Verify(ctx, session.Reference)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && age > s.abandonAfter {
			report.Abandoned++
			return s.sessions.MarkStatus(ctx, session.Reference, enums.PaymentSessionAbandoned)
		}
		return fmt.Errorf("verify %s: %w", session.Reference, err)
	}

	switch enums.PaymentSessionStatusFromGateway(txn.Status) {
	case enums.PaymentSessionPaid:
		if txn.Reference == "" {
			txn.Reference = session.Reference
		}
		if _, err := s.markPaid(ctx, txn); err != nil {
			return fmt.Errorf("mark %s paid: %w", session.Reference, err)
		}
		report.MarkedPaid++
		paid, err := s.sessions.FindByReference(ctx, session.Reference)
		if err != nil {
			return fmt.Errorf("reload %s: %w", session.Reference, err)
		}
		return s.createFromSession(ctx, *paid, report)
	case enums.PaymentSessionFailed:
		report.MarkedFailed++
		return s.sessions.MarkStatus(ctx, session.Reference, enums.PaymentSessionFailed)
	case enums.PaymentSessionAbandoned:
		report.Abandoned++
		return s.sessions.MarkStatus(ctx, session.Reference, enums.PaymentSessionAbandoned)
	default:
		if age > s.abandonAfter {
			report.Abandoned++
			return s.sessions.MarkStatus(ctx, session.Reference, enums.PaymentSessionAbandoned)
		}
		report.Skipped++
	}
	return nil
}

func (s *service) createFromSession(ctx context.Context, session models.PaymentSession, report *ReconcileReport) error {
	if existing, err := s.orders.FindByPaystackReference(ctx, session.Reference); err == nil {
		report.Linked++
		return s.sessions.MarkOrderCreated(ctx, session.Reference, existing.ID, s.now().UTC())
	} else if !db.IsNotFound(err) {
		return fmt.Errorf("lookup order for %s: %w", session.Reference, err)
	}

	snapshot := session.Checkout
	if snapshot == nil || len(snapshot.Items) == 0 {
		return s.parkSession(ctx, session, "paid session has no checkout snapshot", report)
	}

	input := CreateOrderInput{
		OrderID:           snapshot.OrderID,
		Customer:          snapshot.Customer,
		Items:             snapshot.Items,
		Shipping:          snapshot.Shipping,
		DeliveryLocation:  snapshot.DeliveryLocation,
		PaystackReference: session.Reference,
	}
	if input.OrderID == "" && session.OrderID != nil {
		input.OrderID = *session.OrderID
	}
	if input.Customer.Email == "" {
		input.Customer.Email = session.Email
	}
	input.UserID = parseUserID(snapshot.UserID)

	if missing := missingFields(input, enums.OrderStatusSubmitted); len(missing) > 0 {
		return s.parkSession(ctx, session, "checkout snapshot missing "+strings.Join(missing, ", "), report)
	}

	paid := sessionTransaction(session, s.now())
	res, err := s.createOrder(ctx, input, enums.OrderStatusSubmitted, paymentFromTransaction(paid, s.now()), paid)
	if err != nil {
		if needsReview(err) {
			return s.parkSession(ctx, session, err.Error(), report)
		}
		return fmt.Errorf("create order for %s: %w", session.Reference, err)
	}
	if res.AlreadyExists {
		report.Linked++
		return nil
	}
	report.OrdersCreated++
	return nil
}

// sessionTransaction rebuilds the settled charge from a paid session so the
// order is checked against what was actually paid. Rows paid before the
// amount was recorded fall back to the initialised amount.
func sessionTransaction(session models.PaymentSession, now time.Time) *paystack.Transaction {
	amount := session.Amount
	if session.AmountPaid != nil {
		amount = *session.AmountPaid
	}
	paidAt := now.UTC()
	if session.PaidAt != nil {
		paidAt = session.PaidAt.UTC()
	}
	txn := &paystack.Transaction{
		Status:      "success",
		Reference:   session.Reference,
		AmountMinor: paystack.ToMinorUnits(amount),
		Currency:    session.Currency,
		PaidAt:      &paidAt,
	}
	if session.GatewayChannel != nil {
		txn.Channel = *session.GatewayChannel
	}
	return txn
}

// needsReview reports whether retrying the order build can never succeed
// without someone changing the session or the catalog.
func needsReview(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return false
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeStateConflict, pkgerrors.CodeConflict:
		return true
	}
	return false
}

func (s *service) parkSession(ctx context.Context, session models.PaymentSession, reason string, report *ReconcileReport) error {
	if err := s.sessions.MarkNeedsReview(ctx, session.Reference, reason); err != nil {
		return fmt.Errorf("park %s: %w", session.Reference, err)
	}
	report.NeedsReview++
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"reference": session.Reference,
			"reason":    reason,
		}), "paid session needs review")
	}
	return nil
}

func parseUserID(raw string) *uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &id
}
