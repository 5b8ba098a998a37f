package natscluster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/drover-io/drover/internal/kvutil"
	"github.com/drover-io/drover/internal/logging"
	"github.com/drover-io/drover/types"
)

// Worker is the local implementation a member exposes to the leader.
//
// Registration serves these operations over NATS request/reply; the actual
// replication work behind StartStreaming/StopStreaming is the caller's.
type Worker interface {
	// Ready reports whether the worker can accept a new assignment.
	Ready(ctx context.Context) error

	// StartStreaming begins replication for the given membership slot.
	StartStreaming(ctx context.Context, membership types.Membership, config string) error

	// StopStreaming halts all replication activity.
	StopStreaming(ctx context.Context) error
}

// presenceDoc is the value stored at each member's presence key.
type presenceDoc struct {
	MemberID  string    `json:"member_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registration advertises a member to the cluster and serves its RPC
// operations.
//
// It maintains a TTL'd presence entry in the presence bucket, refreshed at
// one third of the TTL, and answers the leader's ready/start/stop requests
// on the member's RPC subjects. A crashed member stops refreshing and its
// entry expires, which the leader observes as a membership change.
type Registration struct {
	cfg      Config
	nc       *nats.Conn
	presence jetstream.KeyValue
	memberID string
	worker   Worker
	logger   types.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	subs    []*nats.Subscription
}

// NewRegistration creates a registration for the given member.
//
// Parameters:
//   - ctx: Context for presence bucket creation
//   - nc: Established NATS connection (owned by the caller)
//   - cfg: Adapter configuration (nil for defaults); must match the
//     leader's configuration for the same connector
//   - memberID: Stable unique identifier of this member process
//   - worker: Local operation implementation
//
// Returns:
//   - *Registration: Registration ready to Start
//   - error: Validation or bucket creation error
func NewRegistration(ctx context.Context, nc *nats.Conn, cfg *Config, memberID string, worker Worker) (*Registration, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: NATS connection is required", types.ErrInvalidConfig)
	}
	if memberID == "" {
		return nil, fmt.Errorf("%w: member ID is required", types.ErrInvalidConfig)
	}
	if worker == nil {
		return nil, fmt.Errorf("%w: worker implementation is required", types.ErrInvalidConfig)
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

	presence, err := kvutil.EnsureBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      config.PresenceBucket,
		Description: "drover member presence",
		TTL:         config.PresenceTTL,
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure presence bucket: %w", err)
	}

	return &Registration{
		cfg:      config,
		nc:       nc,
		presence: presence,
		memberID: memberID,
		worker:   worker,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start publishes the first presence entry, subscribes the RPC subjects, and
// begins refreshing presence in the background.
//
// Returns:
//   - error: ErrAlreadyStarted, or the initial publish/subscribe failure
func (r *Registration) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return types.ErrNotStarted
	}
	if r.started {
		return types.ErrAlreadyStarted
	}

	if err := r.publishPresence(ctx); err != nil {
		return fmt.Errorf("failed to publish initial presence: %w", err)
	}

	if err := r.subscribeRPC(); err != nil {
		r.unsubscribeLocked()

		return err
	}

	r.started = true
	go r.refreshLoop()

	r.logger.Info("member registered", "member_id", r.memberID)

	return nil
}

// Stop withdraws the member: it stops the refresh loop, unsubscribes the RPC
// subjects, and deletes the presence entry so the departure is visible
// immediately instead of after TTL expiry.
func (r *Registration) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()

		return types.ErrNotStarted
	}
	if r.stopped {
		r.mu.Unlock()

		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh

	r.mu.Lock()
	r.unsubscribeLocked()
	r.mu.Unlock()

	if err := r.presence.Delete(ctx, r.presenceKey()); err != nil {
		r.logger.Warn("failed to delete presence entry", "error", err)
	}

	r.logger.Info("member deregistered", "member_id", r.memberID)

	return nil
}

func (r *Registration) presenceKey() string {
	return fmt.Sprintf("%s.%s", r.cfg.PresencePrefix, r.memberID)
}

func (r *Registration) publishPresence(ctx context.Context) error {
	doc, err := json.Marshal(presenceDoc{MemberID: r.memberID, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	_, err = r.presence.Put(ctx, r.presenceKey(), doc)

	return err
}

// refreshLoop republishes presence at a third of the TTL so two consecutive
// refresh failures still leave the entry alive.
func (r *Registration) refreshLoop() {
	defer close(r.doneCh)

	interval := r.cfg.PresenceTTL / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if err := r.publishPresence(ctx); err != nil {
				r.logger.Warn("failed to refresh presence", "member_id", r.memberID, "error", err)
			}
			cancel()
		}
	}
}

func (r *Registration) subscribeRPC() error {
	handlers := []struct {
		op      string
		handler nats.MsgHandler
	}{
		{opReady, r.handleReady},
		{opStart, r.handleStart},
		{opStop, r.handleStop},
	}

	for _, h := range handlers {
		subject := fmt.Sprintf("%s.%s.%s", r.cfg.RPCSubjectPrefix, r.memberID, h.op)
		sub, err := r.nc.Subscribe(subject, h.handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
	}

	return nil
}

// unsubscribeLocked drains all RPC subscriptions. Called with r.mu held.
func (r *Registration) unsubscribeLocked() {
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil {
			r.logger.Warn("failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	r.subs = nil
}

func (r *Registration) handleReady(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	r.respond(msg, r.worker.Ready(ctx))
}

func (r *Registration) handleStart(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	var req startRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respond(msg, fmt.Errorf("malformed start request: %w", err))

		return
	}
	if err := req.Membership.Validate(); err != nil {
		r.respond(msg, err)

		return
	}

	r.logger.Info("assignment received", "member_id", r.memberID, "membership", req.Membership.String())
	r.respond(msg, r.worker.StartStreaming(ctx, req.Membership, req.Config))
}

func (r *Registration) handleStop(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	r.respond(msg, r.worker.StopStreaming(ctx))
}

func (r *Registration) respond(msg *nats.Msg, opErr error) {
	reply := rpcReply{OK: opErr == nil}
	if opErr != nil {
		reply.Error = opErr.Error()
	}

	data, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error("failed to encode rpc reply", "error", err)

		return
	}

	if err := msg.Respond(data); err != nil {
		r.logger.Warn("failed to send rpc reply", "subject", msg.Subject, "error", err)
	}
}
