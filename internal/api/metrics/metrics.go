// Package metrics defines the custom Prometheus metrics of the onboarding
// API. Metrics are registered on the default registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "onboarding"

// ── Accounts ─────────────────────────────────────────────────────────────────

// SignupsTotal counts signup attempts.
// Label:
//   - result: "created", "invalid", "email_in_use", "weak_password", "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// VerificationsTotal counts verify pages that reached the verified state.
// Label:
//   - via: "session", "notification" or "link"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_verifications_total",
		Help:      "Total number of verification watchers that observed a verified session.",
	},
	[]string{"via"},
)

// MailDeliveriesTotal counts verification email delivery attempts.
// Label:
//   - result: "sent" or "failed"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of verification email delivery attempts.",
	},
	[]string{"result"},
)

// ── Onboarding ───────────────────────────────────────────────────────────────

// StepsAdvancedTotal counts successful step transitions.
// Label:
//   - to: name of the step entered
var StepsAdvancedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "steps_advanced_total",
		Help:      "Total number of onboarding step transitions, by target step.",
	},
	[]string{"to"},
)

// SubmissionsTotal counts submit attempts.
// Label:
//   - result: "submitted", "in_progress", "invalid" or "error"
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of onboarding submissions, by result.",
	},
	[]string{"result"},
)

// StageDuration measures how long staging one file takes.
// Label:
//   - kind: "id_front", "id_back" or "avatar"
var StageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of staging an attached file.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// ── Review ───────────────────────────────────────────────────────────────────

// ApprovalsTotal counts profiles activated by an admin.
var ApprovalsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_total",
		Help:      "Total number of profiles approved by reviewers.",
	},
)
