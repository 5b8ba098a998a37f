package rebalance

import (
	"context"
	"fmt"
	"time"

	"github.com/drover-io/drover/types"
)

// Default retry timings. These are fixed delays with no backoff growth;
// the quiesce and readiness loops are deliberately unbounded (see package doc).
const (
	DefaultQuiesceRetryDelay   = 5 * time.Second
	DefaultQuietPeriod         = 30 * time.Second
	DefaultReadinessRetryDelay = 5 * time.Second
	DefaultAssignRetryDelay    = 3 * time.Second
)

// Config holds the dependencies and timings for a Rebalancer.
type Config struct {
	// Cluster is the endpoint directory and document store (required).
	Cluster types.Cluster

	// Validator checks the configuration document before a pass (required).
	Validator types.ConfigValidator

	// QuiesceRetryDelay is the sleep between failed quiesce attempts.
	QuiesceRetryDelay time.Duration

	// QuietPeriod is the extra wait after a quiesce that needed more than
	// one attempt, giving unreachable nodes time to finish stopping.
	QuietPeriod time.Duration

	// ReadinessRetryDelay is the sleep between readiness polls when no
	// worker is ready yet.
	ReadinessRetryDelay time.Duration

	// AssignRetryDelay is the sleep before restarting a pass after a
	// failed startStreaming call.
	AssignRetryDelay time.Duration

	// Logger is optional; defaults are filled by the caller.
	Logger types.Logger

	// Metrics is optional; defaults are filled by the caller.
	Metrics types.MetricsCollector
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Cluster == nil {
		return fmt.Errorf("%w: cluster is required", types.ErrInvalidConfig)
	}
	if c.Validator == nil {
		return fmt.Errorf("%w: config validator is required", types.ErrInvalidConfig)
	}
	if c.Logger == nil {
		return fmt.Errorf("%w: logger is required", types.ErrInvalidConfig)
	}
	if c.Metrics == nil {
		return fmt.Errorf("%w: metrics collector is required", types.ErrInvalidConfig)
	}

	return nil
}

// SetDefaults fills in zero-valued timings with the package defaults.
func (c *Config) SetDefaults() {
	if c.QuiesceRetryDelay == 0 {
		c.QuiesceRetryDelay = DefaultQuiesceRetryDelay
	}
	if c.QuietPeriod == 0 {
		c.QuietPeriod = DefaultQuietPeriod
	}
	if c.ReadinessRetryDelay == 0 {
		c.ReadinessRetryDelay = DefaultReadinessRetryDelay
	}
	if c.AssignRetryDelay == 0 {
		c.AssignRetryDelay = DefaultAssignRetryDelay
	}
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
// Returns ctx.Err() on cancellation so retry loops abort promptly instead of
// sleeping out a previously started delay.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
