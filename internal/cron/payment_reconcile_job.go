package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

const defaultReconcileBatch = 50

type paymentReconciler interface {
	ReconcilePayments(ctx context.Context, limit int) (checkout.ReconcileReport, error)
}

// NewPaymentReconcileJob repairs payment sessions whose redirect or webhook
// never arrived.
func NewPaymentReconcileJob(logg *logger.Logger, reconciler paymentReconciler, batch int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &paymentReconcileJob{logg: logg, reconciler: reconciler, batch: batch}, nil
}

type paymentReconcileJob struct {
	logg       *logger.Logger
	reconciler paymentReconciler
	batch      int
}

func (j *paymentReconcileJob) Name() string { return "payment_reconciliation" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	report, err := j.reconciler.ReconcilePayments(ctx, j.batch)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"orders_created": report.OrdersCreated,
		"linked":         report.Linked,
		"marked_paid":    report.MarkedPaid,
		"marked_failed":  report.MarkedFailed,
		"abandoned":      report.Abandoned,
		"needs_review":   report.NeedsReview,
		"skipped":        report.Skipped,
	}), "payment reconciliation sweep finished")
	return err
}
