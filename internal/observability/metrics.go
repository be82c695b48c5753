// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// RPC metrics
	RPCCallLatency    *prometheus.HistogramVec
	RPCRetries        *prometheus.CounterVec
	RPCUnavailable    *prometheus.CounterVec
	OwnerCacheLookups *prometheus.CounterVec

	// Snapshot metrics
	SnapshotBuilds             *prometheus.CounterVec
	SnapshotDuration           prometheus.Histogram
	SnapshotHolders            prometheus.Gauge
	SnapshotResolutionFailures prometheus.Counter
	WalletSetVersion           prometheus.Gauge

	// Classification metrics
	TransfersClassified *prometheus.CounterVec
	TransfersDuplicate  *prometheus.CounterVec
	InstructionsDropped *prometheus.CounterVec
	AuthorityFallbacks  prometheus.Counter

	// Backfill metrics
	BackfillTransactions *prometheus.CounterVec

	// Queue metrics
	QueueDepth     prometheus.Gauge
	QueueProcessed *prometheus.CounterVec
	QueueDiscarded prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "holderflow"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		RPCRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "rate_limit_retries_total",
			Help:      "Total number of retries after a rate-limit response",
		}, []string{"method"}),
		RPCUnavailable: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "unavailable_total",
			Help:      "Total number of calls that exhausted the retry budget",
		}, []string{"method"}),
		OwnerCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "owner_cache_lookups_total",
			Help:      "Token account owner cache lookups by result",
		}, []string{"result"}),

		SnapshotBuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "builds_total",
			Help:      "Total number of holder snapshot builds by status",
		}, []string{"status"}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Holder snapshot build duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		SnapshotHolders: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "holders",
			Help:      "Number of wallets in the latest snapshot",
		}),
		SnapshotResolutionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "resolution_failures_total",
			Help:      "Token accounts excluded because owner resolution failed",
		}),
		WalletSetVersion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "wallet_set_version",
			Help:      "Version of the published monitored-wallet set",
		}),

		TransfersClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "transfers_total",
			Help:      "Classified transfers stored, by direction, protocol and source",
		}, []string{"direction", "protocol", "source"}),
		TransfersDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "duplicates_total",
			Help:      "Transfers skipped because their dedupe key already existed",
		}, []string{"source"}),
		InstructionsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "instructions_dropped_total",
			Help:      "Transfer instructions not classified, by reason",
		}, []string{"reason"}),
		AuthorityFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "authority_fallbacks_total",
			Help:      "Transfers classified with the instruction authority as sender after owner lookup failed",
		}),

		BackfillTransactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backfill",
			Name:      "transactions_total",
			Help:      "Historical transactions processed by status",
		}, []string{"status"}),

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Live notifications waiting in the queue",
		}),
		QueueProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "processed_total",
			Help:      "Live notifications processed by status",
		}, []string{"status"}),
		QueueDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "discarded_total",
			Help:      "Live notifications discarded at shutdown",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.RPCCallLatency.WithLabelValues(method, status).Observe(seconds)
}

// RecordRPCRetry records a retry after a rate-limit response.
func RecordRPCRetry(method string) {
	DefaultMetrics.RPCRetries.WithLabelValues(method).Inc()
}

// RecordRPCUnavailable records a call that exhausted its retry budget.
func RecordRPCUnavailable(method string) {
	DefaultMetrics.RPCUnavailable.WithLabelValues(method).Inc()
}

// RecordOwnerCache records an owner cache hit or miss.
func RecordOwnerCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.OwnerCacheLookups.WithLabelValues(result).Inc()
}

// RecordSnapshot records a snapshot build.
func RecordSnapshot(status string, holders int, durationSeconds float64) {
	DefaultMetrics.SnapshotBuilds.WithLabelValues(status).Inc()
	DefaultMetrics.SnapshotDuration.Observe(durationSeconds)
	if status == "ok" {
		DefaultMetrics.SnapshotHolders.Set(float64(holders))
	}
}

// RecordResolutionFailure records a token account dropped from a snapshot.
func RecordResolutionFailure() {
	DefaultMetrics.SnapshotResolutionFailures.Inc()
}

// UpdateWalletSetVersion updates the published wallet set version gauge.
func UpdateWalletSetVersion(version uint64) {
	DefaultMetrics.WalletSetVersion.Set(float64(version))
}

// RecordTransfer records a stored transfer, or a duplicate when inserted is false.
func RecordTransfer(source, direction, protocol string, inserted bool) {
	if !inserted {
		DefaultMetrics.TransfersDuplicate.WithLabelValues(source).Inc()
		return
	}
	DefaultMetrics.TransfersClassified.WithLabelValues(direction, protocol, source).Inc()
}

// RecordDropped records an instruction that produced no transfer event.
func RecordDropped(reason string) {
	DefaultMetrics.InstructionsDropped.WithLabelValues(reason).Inc()
}

// RecordAuthorityFallback records use of the authority as presumed sender.
func RecordAuthorityFallback() {
	DefaultMetrics.AuthorityFallbacks.Inc()
}

// RecordBackfillTransaction records a historical transaction outcome.
func RecordBackfillTransaction(status string) {
	DefaultMetrics.BackfillTransactions.WithLabelValues(status).Inc()
}

// UpdateQueueDepth updates the live queue depth gauge.
func UpdateQueueDepth(depth int) {
	DefaultMetrics.QueueDepth.Set(float64(depth))
}

// RecordQueueItem records a live queue item outcome.
func RecordQueueItem(status string) {
	DefaultMetrics.QueueProcessed.WithLabelValues(status).Inc()
}

// RecordQueueDiscarded records items dropped when the queue shuts down.
func RecordQueueDiscarded(n int) {
	DefaultMetrics.QueueDiscarded.Add(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
