package types

import (
	"context"
	"time"
)

// Endpoint is an opaque handle to a reachable worker process exposing the
// remote operations the leader drives.
//
// Endpoints are borrowed from Cluster.Endpoints for the duration of a single
// broadcast or assignment pass and never retained across passes; the set of
// live workers can change between any two fetches.
//
// Implementations must make ID() stable for the lifetime of the worker
// process so per-endpoint results can be correlated across attempts.
type Endpoint interface {
	// ID returns a stable identifier for the worker behind this handle.
	ID() string

	// Ready reports whether the worker is able to accept a new assignment.
	// A non-nil error excludes the worker from the current rebalance pass
	// only; it may become ready again later.
	Ready(ctx context.Context) error

	// StartStreaming instructs the worker to begin replicating the
	// partitions derived from the given membership, using the supplied raw
	// configuration document.
	StartStreaming(ctx context.Context, membership Membership, config string) error

	// StopStreaming instructs the worker to stop all replication activity.
	StopStreaming(ctx context.Context) error
}

// ConfigState is emitted by a config watch whenever the configuration
// document changes. Only existence is reported; the leader re-reads the
// document body via Cluster.ReadConfig when it acts on the change.
type ConfigState struct {
	// Exists is false when the document was deleted.
	Exists bool
}

// ControlState is emitted by a control watch whenever the control document
// changes. The raw body is carried so the consumer can parse the pause flag;
// an absent or malformed document is treated as not paused.
type ControlState struct {
	// Present is false when the control document does not exist.
	Present bool

	// Body is the raw control document ("" when absent).
	Body string
}

// ConfigWatch is a subscription to configuration document changes.
//
// Updates() delivers one ConfigState per observed change and is closed when
// the watch stops. After the channel closes, Err() reports why: nil for a
// clean Stop, non-nil for a watch failure.
type ConfigWatch interface {
	Updates() <-chan ConfigState
	Err() error
	Stop() error
}

// ControlWatch is a subscription to control document changes.
// Channel and error semantics match ConfigWatch.
type ControlWatch interface {
	Updates() <-chan ControlState
	Err() error
	Stop() error
}

// MembershipWatch is a subscription to cluster membership changes. Each
// update is a bare marker; the consumer re-fetches the endpoint list when it
// acts on one. Channel and error semantics match ConfigWatch.
type MembershipWatch interface {
	Updates() <-chan struct{}
	Err() error
	Stop() error
}

// Cluster is the directory the leader coordinates through: it yields watch
// subscriptions, the current reachable worker set, and the raw configuration
// document.
//
// The leader core treats every Endpoints() result as a fresh, disposable
// snapshot and never caches it across calls.
type Cluster interface {
	// WatchConfig subscribes to configuration document changes.
	WatchConfig(ctx context.Context) (ConfigWatch, error)

	// WatchControl subscribes to control document changes.
	WatchControl(ctx context.Context) (ControlWatch, error)

	// WatchMembership subscribes to membership change markers, polling
	// service health at the given interval where the underlying mechanism
	// requires polling.
	WatchMembership(ctx context.Context, pollInterval time.Duration) (MembershipWatch, error)

	// Endpoints returns the current set of reachable worker handles.
	Endpoints(ctx context.Context) ([]Endpoint, error)

	// ReadConfig returns the current raw configuration document.
	ReadConfig(ctx context.Context) (string, error)
}
