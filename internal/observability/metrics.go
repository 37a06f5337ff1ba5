package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the trade coordinator.
type Metrics struct {
	// --- Operations ---
	OperationsAttempted *prometheus.CounterVec // operation
	OperationsSucceeded *prometheus.CounterVec // operation
	OperationsFailed    *prometheus.CounterVec // operation
	OperationDuration   *prometheus.HistogramVec

	// --- Executor ---
	Submissions          *prometheus.CounterVec // path
	Fallbacks            prometheus.Counter
	DuplicatesRecovered  prometheus.Counter
	AmbiguousDuplicates  prometheus.Counter
	SigningDenied        prometheus.Counter
	ConfirmationDuration *prometheus.HistogramVec // path
	ConfirmationPolls    *prometheus.HistogramVec // path

	// --- Validation ---
	ValidationRejections *prometheus.CounterVec // operation, reason

	// --- Reads ---
	AccountReads  *prometheus.CounterVec // record
	DecodeErrors  *prometheus.CounterVec // record
	ProgramScans  prometheus.Counter
	ScannedATotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers against an explicit registry. Tests use
// a fresh registry to avoid duplicate-registration panics.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	networkBuckets := []float64{
		0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30,
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsAttempted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_operations_attempted_total",
			Help: "Trading operations started",
		}, []string{"operation"}),

		OperationsSucceeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_operations_succeeded_total",
			Help: "Trading operations confirmed by the network",
		}, []string{"operation"}),

		OperationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_operations_failed_total",
			Help: "Trading operations that surfaced an error",
		}, []string{"operation"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paper_operation_duration_seconds",
			Help:    "End-to-end operation latency including confirmation",
			Buckets: networkBuckets,
		}, []string{"operation"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_submissions_total",
			Help: "Raw transaction broadcasts by execution path",
		}, []string{"path"}),

		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_fallbacks_total",
			Help: "Rollup-to-base-chain fallbacks taken",
		}),

		DuplicatesRecovered: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_duplicates_recovered_total",
			Help: "Already-processed outcomes resolved to success via signature status",
		}),

		AmbiguousDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_ambiguous_duplicates_total",
			Help: "Already-processed outcomes with no retrievable status",
		}),

		SigningDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_signing_denied_total",
			Help: "Operations terminated by the signer",
		}),

		ConfirmationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paper_confirmation_duration_seconds",
			Help:    "Time from broadcast to confirmed status",
			Buckets: networkBuckets,
		}, []string{"path"}),

		ConfirmationPolls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paper_confirmation_polls",
			Help:    "Status polls needed before a signature confirmed",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}, []string{"path"}),

		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_validation_rejections_total",
			Help: "Operations rejected locally before any submission",
		}, []string{"operation", "reason"}),

		AccountReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_account_reads_total",
			Help: "On-chain account fetches by record type",
		}, []string{"record"}),

		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_decode_errors_total",
			Help: "Account buffers that failed layout decoding",
		}, []string{"record"}),

		ProgramScans: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_program_scans_total",
			Help: "Full program-account-table scans",
		}),

		ScannedATotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "paper_scanned_accounts_total",
			Help: "Accounts returned by program scans",
		}),
	}
}
