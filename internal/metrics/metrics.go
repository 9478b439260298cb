package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	BookingsCreated     *prometheus.CounterVec
	SlotConflicts       *prometheus.CounterVec
	AvailabilityQueries prometheus.Counter
	NotificationsFailed *prometheus.CounterVec
}

// New creates the collectors under the given namespace and registers
// them with the default registry.
func New(namespace string) *Metrics {
	return NewWith(prometheus.DefaultRegisterer, namespace)
}

// NewWith registers against an explicit registry. Tests pass a fresh
// prometheus.NewRegistry so parallel constructions never collide.
func NewWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BookingsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total bookings and appointments created",
			},
			[]string{"source"},
		),

		SlotConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "slot_conflicts_total",
				Help:      "Total writes rejected by the conflict guard or storage backstop",
			},
			[]string{"source"},
		),

		AvailabilityQueries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "availability_queries_total",
				Help:      "Total availability grid queries",
			},
		),

		NotificationsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_failed_total",
				Help:      "Total notification deliveries that failed (logged, never blocking)",
			},
			[]string{"recipient"},
		),
	}
}
