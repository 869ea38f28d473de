package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the report lifecycle.
type Metrics struct {
	ReportsCreated   prometheus.Counter
	ReportsVerified  prometheus.Counter
	Transitions      *prometheus.CounterVec
	GeofenceFailures prometheus.Counter
}

// New creates and registers the report metrics.
func New() *Metrics {
	return &Metrics{
		ReportsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_reports_created_total",
			Help: "Total number of reports created",
		}),
		ReportsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_reports_verified_total",
			Help: "Total number of reports verified by peer consensus",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civictrust_report_transitions_total",
			Help: "Report status transitions by target status",
		}, []string{"to"}),
		GeofenceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_geofence_failures_total",
			Help: "Submissions and votes rejected for being outside the geofence",
		}),
	}
}

// The increment helpers are nil-safe so unit tests can run without a
// registry.

func (m *Metrics) IncCreated() {
	if m == nil {
		return
	}
	m.ReportsCreated.Inc()
}

func (m *Metrics) IncVerified() {
	if m == nil {
		return
	}
	m.ReportsVerified.Inc()
}

func (m *Metrics) IncTransition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) IncGeofenceFailure() {
	if m == nil {
		return
	}
	m.GeofenceFailures.Inc()
}
