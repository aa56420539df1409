// Package metrics defines and registers all custom Prometheus metrics for
// the todo API. It is the single source of truth for metric names, labels,
// and help strings; promauto registers everything with the default registry
// at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "todo"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure" (unknown user and wrong password are
//     both "failure"; the split is visible only in logs)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts successful account registrations.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_registrations_total",
		Help:      "Total number of accounts registered.",
	},
)

// RefreshesTotal counts token refresh attempts.
// Label:
//   - result: "success", "invalid" (bad/expired token), or "wrong_type"
//     (an access token presented to /refresh)
var RefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_refreshes_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// TokenRejectionsTotal counts bearer tokens rejected by the auth middleware.
// Label:
//   - reason: "expired", "invalid_signature", "malformed", "unsupported",
//     "empty_claims", "wrong_issuer", "refresh_as_access", "user_deleted",
//     "subject_mismatch", "internal"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_token_rejections_total",
		Help:      "Total number of bearer tokens rejected at the auth middleware, by reason.",
	},
	[]string{"reason"},
)

// ── Todo metrics ──────────────────────────────────────────────────────────────

// TodosCreatedTotal counts newly created todos.
var TodosCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "todos_created_total",
		Help:      "Total number of todos created.",
	},
)

// SubtasksCreatedTotal counts newly created subtasks.
var SubtasksCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subtasks_created_total",
		Help:      "Total number of subtasks created.",
	},
)

// StatsCacheTotal counts stats-cache lookups.
// Label:
//   - result: "hit" or "miss"
var StatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_cache_total",
		Help:      "Total number of user-stats cache lookups, by result (hit/miss).",
	},
	[]string{"result"},
)
