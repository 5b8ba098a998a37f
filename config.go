package drover

import (
	"fmt"
	"time"
)

// Config is the configuration for the Leader.
//
// All duration fields accept standard Go duration strings like "30s", "5m"
// when decoded from yaml. The retry delays are fixed (no backoff growth) and
// the quiesce/readiness loops are unbounded; both characteristics are
// deliberate, so tune the delays rather than expecting escalation.
type Config struct {
	// MembershipPollInterval is how often service health is polled by the
	// membership watch where the underlying mechanism requires polling.
	// Recommended: 5 seconds.
	MembershipPollInterval time.Duration `yaml:"membershipPollInterval"`

	// QuiesceRetryDelay is the sleep between failed attempts to stop every
	// worker. Recommended: 5 seconds.
	QuiesceRetryDelay time.Duration `yaml:"quiesceRetryDelay"`

	// QuietPeriod is the extra wait after a quiesce that needed more than
	// one attempt, allowing unreachable nodes to finish stopping before the
	// cluster is reused. Recommended: 30 seconds.
	QuietPeriod time.Duration `yaml:"quietPeriod"`

	// ReadinessRetryDelay is the sleep between readiness polls while no
	// worker is ready. Recommended: 5 seconds.
	ReadinessRetryDelay time.Duration `yaml:"readinessRetryDelay"`

	// AssignRetryDelay is the sleep before restarting a rebalance pass
	// after a failed assignment. Recommended: 3 seconds.
	AssignRetryDelay time.Duration `yaml:"assignRetryDelay"`

	// ShutdownTimeout is the maximum time Stop waits for background
	// goroutines to exit. Recommended: 10 seconds.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		MembershipPollInterval: 5 * time.Second,
		QuiesceRetryDelay:      5 * time.Second,
		QuietPeriod:            30 * time.Second,
		ReadinessRetryDelay:    5 * time.Second,
		AssignRetryDelay:       3 * time.Second,
		ShutdownTimeout:        10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MembershipPollInterval == 0 {
		cfg.MembershipPollInterval = defaults.MembershipPollInterval
	}
	if cfg.QuiesceRetryDelay == 0 {
		cfg.QuiesceRetryDelay = defaults.QuiesceRetryDelay
	}
	if cfg.QuietPeriod == 0 {
		cfg.QuietPeriod = defaults.QuietPeriod
	}
	if cfg.ReadinessRetryDelay == 0 {
		cfg.ReadinessRetryDelay = defaults.ReadinessRetryDelay
	}
	if cfg.AssignRetryDelay == 0 {
		cfg.AssignRetryDelay = defaults.AssignRetryDelay
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.MembershipPollInterval < 0 {
		return fmt.Errorf("%w: membership poll interval must be non-negative", ErrInvalidConfig)
	}
	if c.QuiesceRetryDelay < 0 || c.ReadinessRetryDelay < 0 || c.AssignRetryDelay < 0 {
		return fmt.Errorf("%w: retry delays must be non-negative", ErrInvalidConfig)
	}
	if c.QuietPeriod < 0 {
		return fmt.Errorf("%w: quiet period must be non-negative", ErrInvalidConfig)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: shutdown timeout must be non-negative", ErrInvalidConfig)
	}

	return nil
}
