// Package metrics exposes prometheus counters for the reservation core.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "reservation_transitions_total",
			Help:      "Count of reservation lifecycle transitions by action.",
		},
		[]string{"action"},
	)

	schedulingConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "scheduling_conflicts_total",
			Help:      "Count of rejected bookings and transitions by reason.",
		},
		[]string{"reason"},
	)

	notificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "notification_failures_total",
			Help:      "Count of notifications dropped after retries.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationTransitions, schedulingConflicts, notificationFailures)
	})
}

func IncTransition(action string) {
	reservationTransitions.WithLabelValues(action).Inc()
}

func IncConflict(reason string) {
	schedulingConflicts.WithLabelValues(reason).Inc()
}

func IncNotificationFailure() {
	notificationFailures.Inc()
}
