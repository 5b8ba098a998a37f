package drover

import "github.com/drover-io/drover/types"

// Sentinel errors returned by the Leader.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrClusterRequired is returned when the cluster directory is nil.
	ErrClusterRequired = types.ErrClusterRequired

	// ErrAlreadyStarted is returned when Start is called on a running leader.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when Stop is called on a leader that hasn't
	// been started.
	ErrNotStarted = types.ErrNotStarted

	// ErrFatalWatcher is the terminal error reported by Err() after any of
	// the three watch subscriptions fails.
	ErrFatalWatcher = types.ErrFatalWatcher

	// ErrInvalidConfigDocument wraps connector configuration documents that
	// fail validation at the start of a rebalance pass.
	ErrInvalidConfigDocument = types.ErrInvalidConfigDocument

	// ErrInvalidMembership is returned for membership assignments that
	// violate 1 <= member number <= cluster size.
	ErrInvalidMembership = types.ErrInvalidMembership
)
