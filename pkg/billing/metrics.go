package billing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values beyond the Result constants.
const (
	outcomeInvalidSignature = "invalid_signature"
	outcomeMalformed        = "malformed"
	outcomeUnconfigured     = "unconfigured"
	outcomeFailed           = "failed"

	unknownEventType = "unknown"
)

// Metrics holds the Prometheus collectors for webhook processing.
type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	SideWriteFailures *prometheus.CounterVec
	Duration          *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Panics if registration fails, e.g. when called twice on one registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Webhook deliveries by event type and outcome",
		}, []string{"type", "outcome"}),
		SideWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "webhook",
			Name:      "side_write_failures_total",
			Help:      "Failed best-effort writes by write name",
		}, []string{"write"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "webhook",
			Name:      "duration_seconds",
			Help:      "Webhook processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}

	reg.MustRegister(m.EventsTotal, m.SideWriteFailures, m.Duration)
	return m
}

func (m *Metrics) observe(eventType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = unknownEventType
	}
	m.EventsTotal.WithLabelValues(eventType, outcome).Inc()
	m.Duration.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

func (m *Metrics) sideWriteFailed(name string) {
	if m == nil {
		return
	}
	m.SideWriteFailures.WithLabelValues(name).Inc()
}
