package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scheduler and dispatch counters, exposed on /metrics.
var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remindot_scheduler_cycles_total",
		Help: "Number of completed scheduler evaluation cycles",
	})

	CyclesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remindot_scheduler_cycles_skipped_total",
		Help: "Number of ticks skipped because a previous cycle was still running",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "remindot_scheduler_cycle_duration_seconds",
		Help:    "Duration of a full scheduler evaluation cycle",
		Buckets: prometheus.DefBuckets,
	})

	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remindot_alerts_fired_total",
		Help: "Number of alerts dispatched, by invocation mode",
	}, []string{"mode"})

	RemindersDeactivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remindot_reminders_deactivated_total",
		Help: "Number of reminders auto-deactivated, by reminder kind",
	}, []string{"kind"})

	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remindot_dispatch_failures_total",
		Help: "Number of per-contact delivery failures, by channel",
	}, []string{"channel"})

	EvaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remindot_evaluation_errors_total",
		Help: "Number of per-reminder evaluation errors (invalid recurrence, storage failures)",
	})
)
