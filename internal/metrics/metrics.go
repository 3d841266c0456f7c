package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application workflow.
// Methods are safe to call on a nil *Metrics.
type Metrics struct {
	ApplicationsSubmitted *prometheus.CounterVec
	Transitions           *prometheus.CounterVec
	RejectedTransitions   *prometheus.CounterVec
	CertificatesIssued    *prometheus.CounterVec
	Conflicts             *prometheus.CounterVec
	EventPublishFailures  prometheus.Counter
	RenderDuration        prometheus.Histogram
}

// New registers the workflow metrics with reg.  Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citizen_applications_submitted_total",
			Help: "Total number of applications submitted, by service type",
		}, []string{"service_type"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citizen_application_transitions_total",
			Help: "Total number of applied status transitions, by action and resulting status",
		}, []string{"action", "status"}),
		RejectedTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citizen_application_transitions_rejected_total",
			Help: "Total number of transitions refused because the action is not legal from the current status",
		}, []string{"action", "status"}),
		CertificatesIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citizen_certificates_issued_total",
			Help: "Total number of certificates issued, by certificate type",
		}, []string{"certificate_type"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citizen_write_conflicts_total",
			Help: "Total number of writes refused because of a concurrent update or an existing record",
		}, []string{"operation"}),
		EventPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "citizen_event_publish_failures_total",
			Help: "Total number of workflow events that could not be published",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "citizen_certificate_render_duration_seconds",
			Help:    "Duration of certificate document rendering",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncSubmitted(serviceType string) {
	if m == nil {
		return
	}
	m.ApplicationsSubmitted.WithLabelValues(serviceType).Inc()
}

func (m *Metrics) IncTransition(action, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, status).Inc()
}

func (m *Metrics) IncRejectedTransition(action, status string) {
	if m == nil {
		return
	}
	m.RejectedTransitions.WithLabelValues(action, status).Inc()
}

func (m *Metrics) IncIssued(certType string) {
	if m == nil {
		return
	}
	m.CertificatesIssued.WithLabelValues(certType).Inc()
}

func (m *Metrics) IncConflict(operation string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}

// ObserveRender records the duration of a render.  Call with time.Now() at
// the start of the operation.
func (m *Metrics) ObserveRender(start time.Time) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(time.Since(start).Seconds())
}
