package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "booking_transitions_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"to"},
	)

	transitionsRefused = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "booking_transitions_refused_total",
			Help:      "Count of refused transitions by refusal reason.",
		},
		[]string{"reason"},
	)

	paymentsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "payments_collected_total",
			Help:      "Count of due payments collected by method.",
		},
		[]string{"method"},
	)

	paymentAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "payments_collected_amount_total",
			Help:      "Total amount collected across due payments.",
		},
	)

	extensions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "stay_extensions_total",
			Help:      "Count of confirmed stay extensions.",
		},
	)

	staleUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "frontdesk",
			Name:      "stale_updates_dropped_total",
			Help:      "Count of booking updates dropped for carrying a stale version.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(transitions, transitionsRefused, paymentsCollected, paymentAmount, extensions, staleUpdates)
	})
}

func IncTransition(to string) {
	transitions.WithLabelValues(to).Inc()
}

func IncTransitionRefused(reason string) {
	transitionsRefused.WithLabelValues(reason).Inc()
}

func IncPaymentCollected(method string, amount float64) {
	paymentsCollected.WithLabelValues(method).Inc()
	paymentAmount.Add(amount)
}

func IncExtension() {
	extensions.Inc()
}

func IncStaleUpdateDropped() {
	staleUpdates.Inc()
}
