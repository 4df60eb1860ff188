// Package metrics defines all custom Prometheus metrics for the LMS client
// sync layer. It is the single source of truth for metric names, labels,
// and help strings; the agent exposes them on its introspection server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lms_client"

// ── Notification sync metrics ─────────────────────────────────────────────────

// NotificationPollsTotal counts unread-count poll cycles.
// Label:
//   - result: "ok", "error", or "skipped" (panel open / not eligible)
var NotificationPollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_polls_total",
		Help:      "Total number of unread-count poll cycles, by result.",
	},
	[]string{"result"},
)

// NotificationAlertsTotal counts fired alerts (one sound + toast pair).
// Label:
//   - trigger: "initial_load" or "poll"
var NotificationAlertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_alerts_total",
		Help:      "Total number of new-notification alerts fired, by trigger.",
	},
	[]string{"trigger"},
)

// UnreadNotifications tracks the last known unread count for the current
// identity. Reset to zero when the identity becomes ineligible.
var UnreadNotifications = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_notifications",
		Help:      "Last known unread notification count.",
	},
)

// ── Progress cache metrics ────────────────────────────────────────────────────

// ProgressRollbacksTotal counts optimistic completions that were rolled
// back after the confirming call failed.
// Label:
//   - kind: "video" or "task"
var ProgressRollbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_rollbacks_total",
		Help:      "Total number of optimistic progress marks rolled back on failure.",
	},
	[]string{"kind"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state transitions.
// Label:
//   - to: the state entered ("anonymous" or "authenticated")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions, by target state.",
	},
	[]string{"to"},
)
