package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateVerdicts counts request gate decisions by outcome.
	GateVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindme",
		Subsystem: "gate",
		Name:      "verdicts_total",
		Help:      "Request gate decisions by outcome (allow, login, pricing, error).",
	}, []string{"outcome"})

	// PaymentPhases counts create and capture attempts by result.
	PaymentPhases = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindme",
		Subsystem: "payment",
		Name:      "phases_total",
		Help:      "Payment orchestration attempts by phase and result.",
	}, []string{"phase", "result"})

	// ProcessorDuration tracks latency of payment processor round trips.
	ProcessorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remindme",
		Subsystem: "payment",
		Name:      "processor_duration_seconds",
		Help:      "Payment processor call duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	// Dispatches counts reminder delivery attempts by result.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindme",
		Subsystem: "dispatch",
		Name:      "reminders_total",
		Help:      "Reminder deliveries by result (sent, rescheduled, failed, abandoned).",
	}, []string{"result"})

	// TierChanges counts stored subscription tier writes by source.
	TierChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remindme",
		Subsystem: "billing",
		Name:      "tier_changes_total",
		Help:      "Subscription tier writes by tier and source (capture, admin).",
	}, []string{"tier", "source"})
)
