package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts notification deliveries per channel and kind.
type NotificationMetrics struct {
	deliveries *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	m := &NotificationMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Notification attempts by channel, kind and outcome.",
		}, []string{"channel", "kind", "outcome"}),
	}
	reg.MustRegister(m.deliveries)
	return m
}

func (n *NotificationMetrics) Sent(channel, kind string) {
	n.inc(channel, kind, "sent")
}

func (n *NotificationMetrics) Failed(channel, kind string) {
	n.inc(channel, kind, "failed")
}

// Skipped counts a channel that was disabled or had no recipient.
func (n *NotificationMetrics) Skipped(channel, kind string) {
	n.inc(channel, kind, "skipped")
}

func (n *NotificationMetrics) inc(channel, kind, outcome string) {
	if n == nil || n.deliveries == nil {
		return
	}
	n.deliveries.WithLabelValues(label(channel), label(kind), outcome).Inc()
}
