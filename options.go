package drover

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drover-io/drover/internal/metrics"
)

// Option configures a Leader with optional dependencies.
type Option func(*leaderOptions)

// leaderOptions holds optional Leader configuration.
type leaderOptions struct {
	logger    Logger
	metrics   MetricsCollector
	validator ConfigValidator
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with slog-style adapters)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	leader, err := drover.New(&cfg, cluster, drover.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *leaderOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *leaderOptions) {
		o.metrics = metrics
	}
}

// WithPrometheusMetrics sets a Prometheus-backed metrics collector.
//
// Metric registration is deferred until the first recording, so this option
// is safe on processes that never become leader.
//
// Parameters:
//   - reg: Prometheus registerer (prometheus.DefaultRegisterer when nil)
//   - namespace: Metrics namespace ("drover" when empty)
//
// Returns:
//   - Option: Functional option for New
//
// Example:
//
//	leader, err := drover.New(&cfg, cluster,
//	    drover.WithPrometheusMetrics(nil, "drover"))
func WithPrometheusMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *leaderOptions) {
		o.metrics = metrics.NewPrometheus(reg, namespace)
	}
}

// WithConfigValidator sets the validator applied to the connector
// configuration document at the start of each rebalance pass.
//
// The validator is a black box to the leader: a non-nil error aborts the
// current pass without retrying (the loop retries naturally on the next
// config change event). Defaults to types.JSONConfigValidator.
//
// Parameters:
//   - validator: Validation function for the raw configuration document
//
// Returns:
//   - Option: Functional option for New
func WithConfigValidator(validator ConfigValidator) Option {
	return func(o *leaderOptions) {
		o.validator = validator
	}
}
