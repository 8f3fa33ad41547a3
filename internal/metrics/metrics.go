package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymbeta_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerPlacementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_ledger_placements_total",
			Help: "Ledger entries created, by package type and placement outcome",
		},
		[]string{"type", "outcome"},
	)

	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_ledger_sweeps_total",
			Help: "Ledger sweeps, by package type and result",
		},
		[]string{"type", "result"},
	)

	InvariantViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_ledger_invariant_violations_total",
			Help: "Ledgers found with more than one active entry",
		},
		[]string{"type"},
	)

	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_payment_reconciliations_total",
			Help: "Payment reconciliations, by source and result",
		},
		[]string{"source", "result"},
	)

	PaymentsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_payments_failed_total",
			Help: "Pending payments marked failed",
		},
		[]string{"source"},
	)

	UsersRegisteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_users_registered_total",
			Help: "Accounts created, by role",
		},
		[]string{"role"},
	)

	TrainingPlansCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymbeta_training_plans_created_total",
			Help: "Training plans created by trainers",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymbeta_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymbeta_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLedgerPlacement(packageType, outcome string) {
	LedgerPlacementsTotal.WithLabelValues(packageType, outcome).Inc()
}

func RecordSweep(packageType, result string) {
	SweepsTotal.WithLabelValues(packageType, result).Inc()
}

func RecordInvariantViolation(packageType string) {
	InvariantViolationsTotal.WithLabelValues(packageType).Inc()
}

func RecordReconciliation(source, result string) {
	ReconciliationsTotal.WithLabelValues(source, result).Inc()
}

func RecordPaymentFailed(source string) {
	PaymentsFailedTotal.WithLabelValues(source).Inc()
}

func RecordUserRegistered(role string) {
	UsersRegisteredTotal.WithLabelValues(role).Inc()
}

func RecordTrainingPlan() {
	TrainingPlansCreatedTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
