package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the drover library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). Components use these sentinels for known conditions and wrap
// external errors with context using fmt.Errorf("...: %w", err).

// Leader errors - Public API errors returned by the Leader component.
var (
	// ErrInvalidConfig is returned when the leader configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClusterRequired is returned when the cluster directory is nil.
	ErrClusterRequired = errors.New("cluster directory is required")

	// ErrAlreadyStarted is returned when Start is called on a running leader.
	ErrAlreadyStarted = errors.New("leader already started")

	// ErrNotStarted is returned when operations require a started leader.
	ErrNotStarted = errors.New("leader not started")

	// ErrFatalWatcher is the terminal error raised when any of the three
	// watch subscriptions fails. The leader loop cannot trust its view of
	// the cluster after this and the process is expected to exit.
	ErrFatalWatcher = errors.New("watch subscription failed")
)

// Rebalance errors - returned by the rebalance components.
var (
	// ErrInvalidConfigDocument is returned when the connector configuration
	// document fails validation at the start of a rebalance pass.
	ErrInvalidConfigDocument = errors.New("invalid connector configuration document")

	// ErrEndpointNotReady is returned by readiness probes for workers that
	// cannot accept an assignment right now.
	ErrEndpointNotReady = errors.New("endpoint not ready")

	// ErrInvalidMembership is returned when a membership assignment is
	// malformed (member number out of range or non-positive cluster size).
	ErrInvalidMembership = errors.New("invalid membership")
)

// Connectivity errors - shared across cluster adapters.
var (
	// ErrConnectivity indicates a transport-level issue talking to the
	// coordination backend, as opposed to an application error.
	ErrConnectivity = errors.New("connectivity issue")

	// ErrNoKeysFound is returned when a KV listing yields no keys
	// (an expected condition, not a failure).
	ErrNoKeysFound = errors.New("no keys found")
)

// IsNoKeysFoundError checks if an error indicates an empty KV listing.
//
// Handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}
