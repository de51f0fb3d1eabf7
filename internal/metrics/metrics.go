package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PurchasesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_purchases_completed_total",
			Help: "Number of purchases finalized successfully",
		},
	)

	FreePurchases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_free_purchases_total",
			Help: "Number of zero-amount purchases that bypassed the processor",
		},
	)

	DuplicateConfirmations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_duplicate_confirmations_total",
			Help: "Confirmation calls short-circuited by the idempotency check",
		},
	)

	GatewayErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_gateway_errors_total",
			Help: "Failed calls to the payment processor",
		},
	)

	AmountMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_amount_mismatches_total",
			Help: "Confirmations rejected because the charged amount disagreed with the quote",
		},
	)

	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_notification_failures_total",
			Help: "Notification channel sends that failed and were swallowed",
		},
		[]string{"channel"},
	)

	FinalizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "checkout_finalize_duration_seconds",
			Help: "Time taken to finalize a confirmed purchase",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		PurchasesCompleted,
		FreePurchases,
		DuplicateConfirmations,
		GatewayErrors,
		AmountMismatches,
		NotificationFailures,
		FinalizeDuration,
	)
}
