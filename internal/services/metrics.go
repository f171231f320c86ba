package services

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values come from fixed sets (source, status,
// method, outcome) so cardinality stays bounded.
var (
	sessionsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sessions_opened_total",
			Help: "Table sessions opened, by source system.",
		},
		[]string{"source"},
	)

	sessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sessions_finished_total",
			Help: "Table sessions that reached a terminal status.",
		},
		[]string{"status"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_payments_total",
			Help: "Payment attempts by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	lockConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_lock_conflicts_total",
			Help: "Lock acquisitions refused because another holder is live.",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionsOpened, sessionsFinished, paymentsTotal, lockConflicts)
}
