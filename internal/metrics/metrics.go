package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "oktabridge"
)

var (
	batchDurationBuckets = []float64{1, 2, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600}

	// Login Metrics
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Count of login-time reconciliations by outcome.",
	}, []string{"provider", "outcome"})

	LoginFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_failures_total",
		Help:      "Count of failed login reconciliations by failure code.",
	}, []string{"provider", "code"})

	// Batch Sync Metrics
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Time taken for a batch sync page to complete.",
		Buckets:   batchDurationBuckets,
	}, []string{"provider"})

	BatchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Count of batch sync executions.",
	}, []string{"provider", "status"})

	BatchUsersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_users_total",
		Help:      "Count of application users processed by batch sync.",
	}, []string{"provider", "result"})

	BatchUnlinkedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_unlinked_total",
		Help:      "Count of stale identities unlinked by batch sync.",
	}, []string{"provider"})

	BatchLastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "batch_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful batch sync run.",
	}, []string{"provider"})
)
