package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	metrics.ObserveDuration("payment_reconciliation", 250*time.Millisecond)
	metrics.IncSuccess("payment_reconciliation")
	metrics.IncFailure("payment_reconciliation")
	metrics.IncSkipped("cron")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := mustCounter(t, mfs, "kitstore_cron_job_runs_total", map[string]string{"job": "payment_reconciliation", "outcome": "success"}); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := mustCounter(t, mfs, "kitstore_cron_job_runs_total", map[string]string{"job": "payment_reconciliation", "outcome": "failure"}); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got := mustCounter(t, mfs, "kitstore_cron_cycles_skipped_total", map[string]string{"lock": "cron"}); got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "kitstore_cron_job_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() <= 0 {
		t.Fatal("expected duration sample")
	}
}

func TestNotificationAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	notes := NewNotificationMetrics(reg)
	notes.Sent("email", "order_confirmation")
	notes.Failed("sms", "status_changed")
	notes.Failed("sms", "status_changed")
	outbox := NewOutboxMetrics(reg)
	outbox.Inc("order_created", "published")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got := mustCounter(t, mfs, "kitstore_notifications_deliveries_total", map[string]string{"channel": "sms", "outcome": "failed"}); got != 2 {
		t.Fatalf("expected 2 sms failures, got %f", got)
	}
	if got := mustCounter(t, mfs, "kitstore_outbox_events_total", map[string]string{"event_type": "order_created"}); got != 1 {
		t.Fatalf("expected 1 published event, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("x")
	NewNotificationMetrics(nil).Sent("email", "x")
	NewHTTPMetrics(nil).Observe("/", "GET", 200, time.Millisecond)
	var nilMetrics *OutboxMetrics
	nilMetrics.Inc("x", "y")
}

func mustCounter(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatal(fmt.Sprintf("metric %q missing labels %v", name, labels))
	return 0
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
