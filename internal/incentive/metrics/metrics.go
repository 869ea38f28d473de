package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the incentive engine.
type Metrics struct {
	PointsAwarded  prometheus.Counter
	BadgesAwarded  prometheus.Counter
	TicketsIssued  prometheus.Counter
	EventsConsumed *prometheus.CounterVec
}

// New creates and registers the incentive metrics.
func New() *Metrics {
	return &Metrics{
		PointsAwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_points_awarded_total",
			Help: "Total points credited across all accounts",
		}),
		BadgesAwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_badges_awarded_total",
			Help: "Total badges awarded",
		}),
		TicketsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civictrust_lottery_tickets_issued_total",
			Help: "Total lottery tickets issued",
		}),
		EventsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civictrust_incentive_events_consumed_total",
			Help: "Lifecycle events consumed by the incentive engine",
		}, []string{"type"}),
	}
}

func (m *Metrics) AddPoints(points int) {
	if m == nil {
		return
	}
	m.PointsAwarded.Add(float64(points))
}

func (m *Metrics) IncBadge() {
	if m == nil {
		return
	}
	m.BadgesAwarded.Inc()
}

func (m *Metrics) IncTicket() {
	if m == nil {
		return
	}
	m.TicketsIssued.Inc()
}

func (m *Metrics) IncEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsConsumed.WithLabelValues(eventType).Inc()
}
