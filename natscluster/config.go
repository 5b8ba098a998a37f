package natscluster

import (
	"fmt"
	"time"

	"github.com/drover-io/drover/types"
)

// Default configuration values.
const (
	DefaultDocumentsBucket  = "drover-documents"
	DefaultPresenceBucket   = "drover-presence"
	DefaultConfigKey        = "config"
	DefaultControlKey       = "control"
	DefaultPresencePrefix   = "member"
	DefaultPresenceTTL      = 6 * time.Second
	DefaultRPCSubjectPrefix = "drover.rpc"
	DefaultRequestTimeout   = 5 * time.Second
)

// Config holds the NATS cluster adapter configuration.
//
// All fields have sensible defaults; a zero Config run through SetDefaults
// yields a working single-connector setup. Multiple independent connectors
// sharing one NATS deployment must use distinct bucket names and subject
// prefixes.
type Config struct {
	// DocumentsBucket is the KV bucket holding the connector configuration
	// and control documents.
	DocumentsBucket string `yaml:"documents_bucket" json:"documents_bucket"`

	// PresenceBucket is the KV bucket holding member presence entries.
	// Entries carry a TTL so crashed members disappear automatically.
	PresenceBucket string `yaml:"presence_bucket" json:"presence_bucket"`

	// ConfigKey is the key of the connector configuration document.
	ConfigKey string `yaml:"config_key" json:"config_key"`

	// ControlKey is the key of the pause/resume control document.
	ControlKey string `yaml:"control_key" json:"control_key"`

	// PresencePrefix is the key prefix for member presence entries.
	// Full keys have the form "<prefix>.<memberID>".
	PresencePrefix string `yaml:"presence_prefix" json:"presence_prefix"`

	// PresenceTTL is how long a presence entry survives without refresh.
	// Members republish at PresenceTTL/3.
	PresenceTTL time.Duration `yaml:"presence_ttl" json:"presence_ttl"`

	// RPCSubjectPrefix is the NATS subject prefix for worker RPC.
	// Per-operation subjects have the form "<prefix>.<memberID>.<op>".
	RPCSubjectPrefix string `yaml:"rpc_subject_prefix" json:"rpc_subject_prefix"`

	// RequestTimeout bounds each individual worker RPC round trip.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`

	// Logger is optional; a no-op logger is used when nil.
	Logger types.Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	cfg := Config{}
	SetDefaults(&cfg)

	return cfg
}

// SetDefaults fills zero-valued fields with defaults.
func SetDefaults(cfg *Config) {
	if cfg.DocumentsBucket == "" {
		cfg.DocumentsBucket = DefaultDocumentsBucket
	}
	if cfg.PresenceBucket == "" {
		cfg.PresenceBucket = DefaultPresenceBucket
	}
	if cfg.ConfigKey == "" {
		cfg.ConfigKey = DefaultConfigKey
	}
	if cfg.ControlKey == "" {
		cfg.ControlKey = DefaultControlKey
	}
	if cfg.PresencePrefix == "" {
		cfg.PresencePrefix = DefaultPresencePrefix
	}
	if cfg.PresenceTTL <= 0 {
		cfg.PresenceTTL = DefaultPresenceTTL
	}
	if cfg.RPCSubjectPrefix == "" {
		cfg.RPCSubjectPrefix = DefaultRPCSubjectPrefix
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks the configuration for invalid values.
//
// Returns:
//   - error: Wrapped types.ErrInvalidConfig describing the first problem found
func (c *Config) Validate() error {
	if c.DocumentsBucket == c.PresenceBucket {
		return fmt.Errorf("%w: documents and presence buckets must differ", types.ErrInvalidConfig)
	}
	if c.ConfigKey == c.ControlKey {
		return fmt.Errorf("%w: config and control keys must differ", types.ErrInvalidConfig)
	}
	if c.PresenceTTL < time.Second {
		return fmt.Errorf("%w: presence TTL must be at least 1s", types.ErrInvalidConfig)
	}
	if c.RequestTimeout < 100*time.Millisecond {
		return fmt.Errorf("%w: request timeout must be at least 100ms", types.ErrInvalidConfig)
	}

	return nil
}
