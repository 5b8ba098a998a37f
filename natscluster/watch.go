package natscluster

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/zeebo/xxh3"

	"github.com/drover-io/drover/types"
)

// debounceInterval coalesces bursts of presence watcher events into a single
// membership scan.
const debounceInterval = 100 * time.Millisecond

// kvWatch adapts a JetStream KV key watcher to the document watch interfaces.
//
// Consecutive revisions with identical content are suppressed: JetStream
// replays and redundant Puts would otherwise trigger spurious rebalances.
// Dedupe keys on a content hash of the entry operation and value.
type kvWatch[T any] struct {
	watcher jetstream.KeyWatcher
	updates chan T

	stopOnce sync.Once
	stopCh   chan struct{}

	mu  sync.Mutex
	err error
}

func newKVWatch[T any](
	ctx context.Context,
	kv jetstream.KeyValue,
	key string,
	logger types.Logger,
	mapFn func(jetstream.KeyValueEntry) T,
) (*kvWatch[T], error) {
	watcher, err := kv.Watch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %q: %w", key, err)
	}

	w := &kvWatch[T]{
		watcher: watcher,
		updates: make(chan T),
		stopCh:  make(chan struct{}),
	}

	go w.run(ctx, key, logger, mapFn)

	return w, nil
}

func (w *kvWatch[T]) Updates() <-chan T {
	return w.updates
}

func (w *kvWatch[T]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

func (w *kvWatch[T]) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Stop()
	})

	return err
}

func (w *kvWatch[T]) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.err = err
}

func (w *kvWatch[T]) run(ctx context.Context, key string, logger types.Logger, mapFn func(jetstream.KeyValueEntry) T) {
	defer close(w.updates)

	var (
		lastHash uint64
		seen     bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case entry, ok := <-w.watcher.Updates():
			if !ok {
				// Closed without Stop means the subscription itself failed.
				if ctx.Err() == nil && !w.stopRequested() {
					w.setErr(fmt.Errorf("%w: watch on key %q closed unexpectedly", types.ErrConnectivity, key))
				}

				return
			}
			if entry == nil {
				// Initial replay complete marker.
				continue
			}

			hash := hashEntry(entry)
			if seen && hash == lastHash {
				logger.Debug("skipping duplicate document revision", "key", entry.Key(), "revision", entry.Revision())

				continue
			}
			seen = true
			lastHash = hash

			select {
			case w.updates <- mapFn(entry):
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

func (w *kvWatch[T]) stopRequested() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// hashEntry computes a content hash over the entry operation and value.
func hashEntry(entry jetstream.KeyValueEntry) uint64 {
	buf := make([]byte, 0, len(entry.Value())+1)
	buf = append(buf, byte(entry.Operation()))
	buf = append(buf, entry.Value()...)

	return xxh3.Hash(buf)
}

// membershipWatch emits a bare marker whenever the set of live members
// changes, including one initial marker after the first successful scan.
//
// Detection is hybrid, following the presence bucket's failure modes:
//   - KV watcher (primary): fast detection of joins and explicit departures
//   - Interval polling (fallback): catches TTL expirations of crashed members
//
// Watcher events are debounced; every trigger ends in a full scan whose
// member-set hash decides whether a marker is emitted, so duplicate triggers
// are harmless.
type membershipWatch struct {
	presence jetstream.KeyValue
	prefix   string
	logger   types.Logger

	updates chan struct{}

	stopOnce sync.Once
	stopCh   chan struct{}

	mu  sync.Mutex
	err error
}

func newMembershipWatch(
	ctx context.Context,
	presence jetstream.KeyValue,
	prefix string,
	pollInterval time.Duration,
	logger types.Logger,
) (*membershipWatch, error) {
	watcher, err := presence.Watch(ctx, prefix+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to watch presence keys: %w", err)
	}

	w := &membershipWatch{
		presence: presence,
		prefix:   prefix,
		logger:   logger,
		updates:  make(chan struct{}),
		stopCh:   make(chan struct{}),
	}

	go w.run(ctx, watcher, pollInterval)

	return w, nil
}

func (w *membershipWatch) Updates() <-chan struct{} {
	return w.updates
}

func (w *membershipWatch) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

func (w *membershipWatch) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})

	return nil
}

func (w *membershipWatch) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.err = err
}

func (w *membershipWatch) run(ctx context.Context, watcher jetstream.KeyWatcher, pollInterval time.Duration) {
	defer close(w.updates)
	defer func() {
		if err := watcher.Stop(); err != nil {
			w.logger.Debug("failed to stop presence watcher", "error", err)
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(debounceInterval)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	var (
		lastHash     uint64
		seen         bool
		pending      bool
		pollFailures int
	)

	// scan lists the member set and emits a marker when it changed.
	// Reports false when the watch should terminate.
	scan := func() bool {
		scanCtx, cancel := context.WithTimeout(ctx, pollInterval)
		members, err := activeMembers(scanCtx, w.presence, w.prefix)
		cancel()
		if err != nil {
			pollFailures++
			w.logger.Warn("presence scan failed", "error", err, "consecutive_failures", pollFailures)
			if pollFailures >= 3 {
				w.setErr(fmt.Errorf("presence scanning failed repeatedly: %w", err))

				return false
			}

			return true
		}
		pollFailures = 0

		hash := xxh3.HashString(strings.Join(members, "\x00"))
		if seen && hash == lastHash {
			return true
		}
		seen = true
		lastHash = hash

		w.logger.Debug("membership changed", "members", members)

		select {
		case w.updates <- struct{}{}:
			return true
		case <-ctx.Done():
			return false
		case <-w.stopCh:
			return false
		}
	}

	// Initial scan establishes the baseline and emits the first marker.
	if !scan() {
		return
	}

	watcherCh := watcher.Updates()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case entry, ok := <-watcherCh:
			if !ok {
				// Watcher lost; polling carries on alone.
				w.logger.Warn("presence watcher closed, falling back to polling only")
				watcherCh = nil

				continue
			}
			if entry == nil {
				continue
			}
			if !pending {
				pending = true
				debounce.Reset(debounceInterval)
			}

		case <-debounce.C:
			pending = false
			if !scan() {
				return
			}

		case <-ticker.C:
			if !scan() {
				return
			}
		}
	}
}
