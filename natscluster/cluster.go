package natscluster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/drover-io/drover/internal/kvutil"
	"github.com/drover-io/drover/internal/logging"
	"github.com/drover-io/drover/types"
)

// Cluster implements the leader's cluster directory over NATS JetStream.
//
// Documents (connector configuration and the pause/resume control document)
// live in one KV bucket; member presence entries live in another with a TTL
// so crashed members age out automatically. Worker RPC uses core NATS
// request/reply on per-member subjects.
type Cluster struct {
	cfg      Config
	nc       *nats.Conn
	js       jetstream.JetStream
	docs     jetstream.KeyValue
	presence jetstream.KeyValue
	logger   types.Logger
}

var _ types.Cluster = (*Cluster)(nil)

// New creates the NATS-backed cluster directory, creating (or opening) the
// documents and presence KV buckets.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - nc: Established NATS connection (owned by the caller)
//   - cfg: Adapter configuration (nil for defaults)
//
// Returns:
//   - *Cluster: Ready-to-use cluster directory
//   - error: Validation or bucket creation error
func New(ctx context.Context, nc *nats.Conn, cfg *Config) (*Cluster, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: NATS connection is required", types.ErrInvalidConfig)
	}

	var config Config
	if cfg != nil {
		config = *cfg
	}
	SetDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	docs, err := kvutil.EnsureBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      config.DocumentsBucket,
		Description: "drover connector documents",
		History:     5,
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure documents bucket: %w", err)
	}

	presence, err := kvutil.EnsureBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      config.PresenceBucket,
		Description: "drover member presence",
		TTL:         config.PresenceTTL,
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure presence bucket: %w", err)
	}

	return &Cluster{
		cfg:      config,
		nc:       nc,
		js:       js,
		docs:     docs,
		presence: presence,
		logger:   logger,
	}, nil
}

// WatchConfig subscribes to configuration document changes.
func (c *Cluster) WatchConfig(ctx context.Context) (types.ConfigWatch, error) {
	return newKVWatch(ctx, c.docs, c.cfg.ConfigKey, c.logger, func(entry jetstream.KeyValueEntry) types.ConfigState {
		return types.ConfigState{Exists: entry.Operation() == jetstream.KeyValuePut}
	})
}

// WatchControl subscribes to control document changes.
func (c *Cluster) WatchControl(ctx context.Context) (types.ControlWatch, error) {
	return newKVWatch(ctx, c.docs, c.cfg.ControlKey, c.logger, func(entry jetstream.KeyValueEntry) types.ControlState {
		if entry.Operation() != jetstream.KeyValuePut {
			return types.ControlState{}
		}

		return types.ControlState{Present: true, Body: string(entry.Value())}
	})
}

// WatchMembership subscribes to member presence changes.
//
// Detection is hybrid: a KV watcher on the presence prefix gives fast
// detection of joins and departures, and an interval poll catches TTL
// expirations the watcher does not surface promptly.
func (c *Cluster) WatchMembership(ctx context.Context, pollInterval time.Duration) (types.MembershipWatch, error) {
	return newMembershipWatch(ctx, c.presence, c.cfg.PresencePrefix, pollInterval, c.logger)
}

// Endpoints returns RPC handles for every member with a live presence entry.
//
// Members are ordered by ID so assignment numbering is deterministic for a
// given member set.
func (c *Cluster) Endpoints(ctx context.Context) ([]types.Endpoint, error) {
	members, err := activeMembers(ctx, c.presence, c.cfg.PresencePrefix)
	if err != nil {
		return nil, err
	}

	endpoints := make([]types.Endpoint, 0, len(members))
	for _, id := range members {
		endpoints = append(endpoints, &rpcEndpoint{
			id:            id,
			nc:            c.nc,
			subjectPrefix: c.cfg.RPCSubjectPrefix,
			timeout:       c.cfg.RequestTimeout,
		})
	}

	return endpoints, nil
}

// ReadConfig returns the current raw configuration document.
func (c *Cluster) ReadConfig(ctx context.Context) (string, error) {
	entry, err := c.docs.Get(ctx, c.cfg.ConfigKey)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", fmt.Errorf("configuration document %q does not exist: %w", c.cfg.ConfigKey, err)
		}

		return "", fmt.Errorf("failed to read configuration document: %w", err)
	}

	return string(entry.Value()), nil
}

// WriteConfig stores the raw configuration document. Intended for operator
// tooling and tests; the leader itself only reads.
func (c *Cluster) WriteConfig(ctx context.Context, raw string) error {
	if _, err := c.docs.Put(ctx, c.cfg.ConfigKey, []byte(raw)); err != nil {
		return fmt.Errorf("failed to write configuration document: %w", err)
	}

	return nil
}

// WriteControl stores the raw control document.
func (c *Cluster) WriteControl(ctx context.Context, raw string) error {
	if _, err := c.docs.Put(ctx, c.cfg.ControlKey, []byte(raw)); err != nil {
		return fmt.Errorf("failed to write control document: %w", err)
	}

	return nil
}

// activeMembers lists member IDs with live presence entries, sorted by ID.
func activeMembers(ctx context.Context, presence jetstream.KeyValue, prefix string) ([]string, error) {
	keys, err := presence.Keys(ctx)
	if err != nil {
		if types.IsNoKeysFoundError(err) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to list presence keys: %w", err)
	}

	members := make([]string, 0, len(keys))
	for _, key := range keys {
		if id, ok := strings.CutPrefix(key, prefix+"."); ok && id != "" {
			members = append(members, id)
		}
	}
	sort.Strings(members)

	return members, nil
}
