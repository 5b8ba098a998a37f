package natscluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drover-io/drover/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultDocumentsBucket, cfg.DocumentsBucket)
	assert.Equal(t, DefaultPresenceBucket, cfg.PresenceBucket)
	assert.Equal(t, DefaultConfigKey, cfg.ConfigKey)
	assert.Equal(t, DefaultControlKey, cfg.ControlKey)
	assert.Equal(t, DefaultPresencePrefix, cfg.PresencePrefix)
	assert.Equal(t, DefaultPresenceTTL, cfg.PresenceTTL)
	assert.Equal(t, DefaultRPCSubjectPrefix, cfg.RPCSubjectPrefix)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)

	require.NoError(t, cfg.Validate())
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		DocumentsBucket: "custom-docs",
		PresenceTTL:     10 * time.Second,
	}
	SetDefaults(&cfg)

	assert.Equal(t, "custom-docs", cfg.DocumentsBucket)
	assert.Equal(t, 10*time.Second, cfg.PresenceTTL)
	assert.Equal(t, DefaultPresenceBucket, cfg.PresenceBucket)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"same buckets", func(c *Config) { c.PresenceBucket = c.DocumentsBucket }},
		{"same document keys", func(c *Config) { c.ControlKey = c.ConfigKey }},
		{"tiny presence TTL", func(c *Config) { c.PresenceTTL = 100 * time.Millisecond }},
		{"tiny request timeout", func(c *Config) { c.RequestTimeout = time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), types.ErrInvalidConfig)
		})
	}
}
