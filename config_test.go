package drover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.MembershipPollInterval)
	assert.Equal(t, 5*time.Second, cfg.QuiesceRetryDelay)
	assert.Equal(t, 30*time.Second, cfg.QuietPeriod)
	assert.Equal(t, 5*time.Second, cfg.ReadinessRetryDelay)
	assert.Equal(t, 3*time.Second, cfg.AssignRetryDelay)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("preserves explicit values", func(t *testing.T) {
		cfg := Config{
			QuietPeriod:       time.Minute,
			QuiesceRetryDelay: time.Second,
		}
		SetDefaults(&cfg)

		assert.Equal(t, time.Minute, cfg.QuietPeriod)
		assert.Equal(t, time.Second, cfg.QuiesceRetryDelay)
		assert.Equal(t, 5*time.Second, cfg.ReadinessRetryDelay)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative poll interval", func(c *Config) { c.MembershipPollInterval = -1 }},
		{"negative quiesce retry delay", func(c *Config) { c.QuiesceRetryDelay = -1 }},
		{"negative readiness retry delay", func(c *Config) { c.ReadinessRetryDelay = -1 }},
		{"negative assign retry delay", func(c *Config) { c.AssignRetryDelay = -1 }},
		{"negative quiet period", func(c *Config) { c.QuietPeriod = -1 }},
		{"negative shutdown timeout", func(c *Config) { c.ShutdownTimeout = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
