// Package metrics defines and registers all custom Prometheus metrics for
// the AuraGate parking backend. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auragate"

// ── Gate metrics ──────────────────────────────────────────────────────────────

// EntriesTotal counts successful check-ins.
// Labels:
//   - role: role of the resolved user ("EMPLOYEE", "GUEST")
//   - vehicle_type: snapshot vehicle class ("CAR", "BIKE", "unknown")
var EntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Total number of successful vehicle check-ins.",
	},
	[]string{"role", "vehicle_type"},
)

// ExitsTotal counts successful check-outs with the same labels as EntriesTotal.
var ExitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exits_total",
		Help:      "Total number of successful vehicle check-outs.",
	},
	[]string{"role", "vehicle_type"},
)

// GateErrorsTotal counts rejected gate operations.
// Labels:
//   - operation: "entry" or "exit"
//   - reason: "recognition", "duplicate", "verification", or "internal"
var GateErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_errors_total",
		Help:      "Total number of rejected gate operations, by reason.",
	},
	[]string{"operation", "reason"},
)

// GateOperationDuration measures end-to-end check-in/check-out latency,
// dominated by the external feature-extraction calls.
var GateOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gate_operation_duration_seconds",
		Help:      "Duration of logEntry/logExit from request to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Guest cleanup metrics ─────────────────────────────────────────────────────

var GuestCleanupScheduled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "guest_cleanup_scheduled_total",
	Help:      "Guest deletions scheduled after exit.",
})

var GuestCleanupDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "guest_cleanup_deleted_total",
	Help:      "Guest records successfully deleted.",
})

var GuestCleanupFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "guest_cleanup_failed_total",
	Help:      "Guest deletions abandoned after exhausting retries.",
})

var GuestCleanupDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "guest_cleanup_dropped_total",
	Help:      "Cleanup tasks dropped because the queue was full.",
})
