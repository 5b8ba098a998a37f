package drover

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/drover-io/drover/internal/eventq"
	"github.com/drover-io/drover/internal/logging"
	"github.com/drover-io/drover/internal/metrics"
	"github.com/drover-io/drover/internal/rebalance"
	"github.com/drover-io/drover/types"
)

// Leader runs the leader-side coordination loop of the replication connector.
//
// It consumes a merged stream of events from three watch subscriptions
// (configuration, control, membership), tracks the readiness gates, and
// triggers a full rebalance whenever all gates are open. Exactly one process
// in the cluster should run a started Leader at a time; leadership
// arbitration happens outside this type.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - The gate state is owned exclusively by the loop goroutine; watch
//     producers communicate only through the event queue
//
// Lifecycle:
//   - Create with New()
//   - Call Start() when this process acquires leadership
//   - Call Stop() on shutdown or when leadership is lost
//   - Watch Done()/Err() for fatal watcher failures; a non-nil Err() means
//     the process can no longer trust its view of the cluster and is
//     expected to exit rather than recover in-process
type Leader struct {
	cfg     Config
	cluster Cluster

	// Optional dependencies
	logger    Logger
	metrics   MetricsCollector
	validator ConfigValidator

	rebalancer *rebalance.Rebalancer

	// Watch subscriptions, acquired in Start and released when the loop exits
	configWatch     ConfigWatch
	controlWatch    ControlWatch
	membershipWatch MembershipWatch

	// Lifecycle management
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	events  *eventq.Queue[LeaderEvent]
	stopped bool

	done chan struct{}
	err  error // terminal error, written by the loop goroutine before done closes
}

// gateState tracks the three rebalance gates.
//
// The struct is owned exclusively by the loop goroutine and passed nowhere;
// hasSeenConfig and hasSeenMembership are monotonic for the life of the loop,
// paused toggles on Pause/Resume events.
type gateState struct {
	hasSeenConfig     bool
	hasSeenMembership bool
	paused            bool
}

// open reports whether a rebalance may run.
func (g gateState) open() bool {
	return g.hasSeenConfig && g.hasSeenMembership && !g.paused
}

// New creates a Leader with the provided configuration and cluster directory.
//
// Returns a concrete *Leader following the "accept interfaces, return
// structs" principle; consumers can define their own narrow interfaces for
// testing.
//
// Parameters:
//   - cfg: Timing configuration (missing fields are filled with defaults)
//   - cluster: Endpoint directory and document store (required)
//   - opts: Optional configuration (logger, metrics, config validator)
//
// Returns:
//   - *Leader: Initialized leader instance
//   - error: Validation error if the configuration is invalid
func New(cfg *Config, cluster Cluster, opts ...Option) (*Leader, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if cluster == nil {
		return nil, ErrClusterRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &leaderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Safe defaults for optional dependencies to avoid nil checks everywhere
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	validator := options.validator
	if validator == nil {
		validator = types.JSONConfigValidator
	}

	rb, err := rebalance.New(&rebalance.Config{
		Cluster:             cluster,
		Validator:           validator,
		QuiesceRetryDelay:   cfg.QuiesceRetryDelay,
		QuietPeriod:         cfg.QuietPeriod,
		ReadinessRetryDelay: cfg.ReadinessRetryDelay,
		AssignRetryDelay:    cfg.AssignRetryDelay,
		Logger:              loggerInstance,
		Metrics:             metricsCollector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rebalancer: %w", err)
	}

	return &Leader{
		cfg:        *cfg,
		cluster:    cluster,
		logger:     loggerInstance,
		metrics:    metricsCollector,
		validator:  validator,
		rebalancer: rb,
		done:       make(chan struct{}),
	}, nil
}

// Start subscribes to the three watch streams and launches the event loop.
//
// Start does not block on the loop; it returns once all three subscriptions
// are established. If any subscription fails, the ones already acquired are
// released and an error is returned.
//
// Parameters:
//   - ctx: Caller context; the loop and its subscriptions run on the
//     leader's own lifecycle context until Stop
//
// Returns:
//   - error: ErrAlreadyStarted, or a subscription error
func (l *Leader) Start(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx != nil {
		return ErrAlreadyStarted
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.events = eventq.New[LeaderEvent]()

	if err := l.subscribe(); err != nil {
		l.releaseWatches()
		l.cancel()
		l.events.Close()
		l.ctx = nil

		return err
	}

	l.wg.Add(1)
	go l.run()

	l.logger.Info("leader loop started")

	return nil
}

// Stop shuts down the leader: it cancels all in-progress waits, releases the
// watch subscriptions, and waits for background goroutines to exit.
//
// Safe to call multiple times; subsequent calls return ErrNotStarted.
//
// Parameters:
//   - ctx: Context bounding the shutdown wait
//
// Returns:
//   - error: ErrNotStarted, or ctx.Err() if goroutines did not exit in time
func (l *Leader) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.ctx == nil || l.stopped {
		l.mu.Unlock()

		return ErrNotStarted
	}
	l.stopped = true
	l.cancel()
	l.events.Close()
	l.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		l.logger.Info("leader stopped gracefully")
		return nil
	case <-ctx.Done():
		l.logger.Error("shutdown timeout exceeded, some goroutines may still be running")
		return ctx.Err()
	}
}

// Done returns a channel closed when the event loop terminates, whether by
// Stop or by a fatal watcher failure.
func (l *Leader) Done() <-chan struct{} {
	return l.done
}

// Err returns the terminal error after Done is closed: nil for a clean stop,
// ErrFatalWatcher when a watch subscription failed. Before termination it
// returns nil.
func (l *Leader) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// subscribe acquires the three watch subscriptions on the leader lifecycle
// context and starts their adapter goroutines. Called with l.mu held.
func (l *Leader) subscribe() error {
	configWatch, err := l.cluster.WatchConfig(l.ctx)
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	l.configWatch = configWatch

	controlWatch, err := l.cluster.WatchControl(l.ctx)
	if err != nil {
		return fmt.Errorf("failed to watch control: %w", err)
	}
	l.controlWatch = controlWatch

	membershipWatch, err := l.cluster.WatchMembership(l.ctx, l.cfg.MembershipPollInterval)
	if err != nil {
		return fmt.Errorf("failed to watch membership: %w", err)
	}
	l.membershipWatch = membershipWatch

	l.wg.Add(3)
	go l.pumpConfig(configWatch)
	go l.pumpControl(controlWatch)
	go l.pumpMembership(membershipWatch)

	return nil
}

// pumpConfig translates config document changes into ConfigChange events.
func (l *Leader) pumpConfig(w ConfigWatch) {
	defer l.wg.Done()

	for state := range w.Updates() {
		if state.Exists {
			l.events.Push(EventConfigChange)
		}
	}

	if err := w.Err(); err != nil {
		l.logger.Error("config change watcher failed", "error", err)
		l.events.Push(EventFatalError)
	}
}

// pumpControl parses each control document into a Pause or Resume event.
// An absent or malformed document means "not paused".
func (l *Leader) pumpControl(w ControlWatch) {
	defer l.wg.Done()

	for state := range w.Updates() {
		l.logger.Debug("got control document", "present", state.Present)

		if l.parsePaused(state) {
			l.events.Push(EventPause)
		} else {
			l.events.Push(EventResume)
		}
	}

	if err := w.Err(); err != nil {
		l.logger.Error("control change watcher failed", "error", err)
		l.events.Push(EventFatalError)
	}
}

// pumpMembership translates membership markers into MembershipChange events.
func (l *Leader) pumpMembership(w MembershipWatch) {
	defer l.wg.Done()

	for range w.Updates() {
		l.events.Push(EventMembershipChange)
	}

	if err := w.Err(); err != nil {
		l.logger.Error("service health watcher failed", "error", err)
		l.events.Push(EventFatalError)
	}
}

// parsePaused extracts the paused flag from a control document.
func (l *Leader) parsePaused(state types.ControlState) bool {
	if !state.Present || state.Body == "" {
		return false
	}

	var control struct {
		Paused bool `json:"paused"`
	}
	if err := json.Unmarshal([]byte(state.Body), &control); err != nil {
		l.logger.Debug("malformed control document, treating as not paused", "error", err)

		return false
	}

	return control.Paused
}

// run is the event loop. It is the sole consumer of the event queue and the
// sole owner of the gate state.
func (l *Leader) run() {
	defer l.wg.Done()
	defer close(l.done)
	defer l.releaseWatches()
	defer l.events.Close()
	defer l.logger.Info("leader loop terminated")

	gates := gateState{}

	for {
		if l.ctx.Err() != nil {
			return
		}

		var event LeaderEvent
		select {
		case <-l.ctx.Done():
			return
		case ev, ok := <-l.events.C():
			if !ok {
				return
			}
			event = ev
		}

		l.logger.Info("got leadership event", "event", event.String())
		l.metrics.RecordEvent(event.String())

		switch event {
		case EventMembershipChange:
			gates.hasSeenMembership = true

		case EventConfigChange:
			gates.hasSeenConfig = true

		case EventPause:
			l.logger.Info("pausing connector activity")
			gates.paused = true
			if err := l.rebalancer.StopStreaming(l.ctx); err != nil {
				if l.ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to quiesce cluster on pause", "error", err)
			}

			continue

		case EventResume:
			if !gates.paused {
				l.logger.Debug("ignoring redundant resume signal")

				continue
			}
			l.logger.Info("resuming connector activity")
			gates.paused = false

		case EventFatalError:
			l.err = ErrFatalWatcher
			l.logger.Error("fatal error in leader loop; terminating")

			return
		}

		// Don't assign work until at least one membership event has been
		// seen and the config document exists.
		if gates.open() {
			l.logger.Info("rebalance triggered", "event", event.String())

			if err := l.rebalancer.Rebalance(l.ctx); err != nil {
				if l.ctx.Err() != nil {
					return
				}
				// Invalid config documents and directory failures abort the
				// pass; the loop retries on the next qualifying event.
				l.logger.Error("rebalance failed", "error", err)
			}
		} else {
			l.logClosedGates(gates)
		}
	}
}

// logClosedGates reports which gate is still blocking a rebalance.
func (l *Leader) logClosedGates(gates gateState) {
	if !gates.hasSeenMembership {
		l.logger.Info("waiting for initial cluster membership event before streaming can start")
		l.metrics.RecordGateBlocked("membership")
	}
	if !gates.hasSeenConfig {
		l.logger.Info("waiting for connector configuration document to exist before streaming can start")
		l.metrics.RecordGateBlocked("config")
	}
	if gates.paused {
		l.logger.Info("connector is paused; waiting for resume signal before streaming can start")
		l.metrics.RecordGateBlocked("paused")
	}
}

// releaseWatches stops all acquired watch subscriptions. Stop errors are
// logged, not propagated: release happens on every exit path, including
// fatal ones.
func (l *Leader) releaseWatches() {
	if l.configWatch != nil {
		if err := l.configWatch.Stop(); err != nil {
			l.logger.Warn("failed to stop config watch", "error", err)
		}
	}
	if l.controlWatch != nil {
		if err := l.controlWatch.Stop(); err != nil {
			l.logger.Warn("failed to stop control watch", "error", err)
		}
	}
	if l.membershipWatch != nil {
		if err := l.membershipWatch.Stop(); err != nil {
			l.logger.Warn("failed to stop membership watch", "error", err)
		}
	}
}
