package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
type MetricsCollector interface {
	LeaderMetrics
	RebalanceMetrics
	BroadcastMetrics
}

// LeaderMetrics defines metrics for the leader event loop.
type LeaderMetrics interface {
	// RecordEvent records a consumed leader event by name.
	RecordEvent(event string)

	// RecordGateBlocked records an event that could not trigger a rebalance
	// because a gate was still closed ("membership", "config", "paused").
	RecordGateBlocked(gate string)
}

// RebalanceMetrics defines metrics for rebalance passes.
type RebalanceMetrics interface {
	// RecordRebalanceDuration records the wall time of a completed rebalance.
	//
	// Parameters:
	//   - seconds: Time taken in seconds
	RecordRebalanceDuration(seconds float64)

	// RecordRebalanceAttempt records one rebalance pass attempt.
	//
	// Parameters:
	//   - success: true if the pass assigned every ready worker
	RecordRebalanceAttempt(success bool)

	// RecordQuiesceAttempts records how many broadcast attempts a quiesce
	// needed before the cluster was fully stopped.
	RecordQuiesceAttempts(attempts int)

	// RecordReadyEndpoints sets the number of workers that passed the most
	// recent readiness check (gauge).
	RecordReadyEndpoints(count int)
}

// BroadcastMetrics defines metrics for RPC fan-outs.
type BroadcastMetrics interface {
	// RecordBroadcast records one fan-out by operation name.
	//
	// Parameters:
	//   - op: Remote operation name ("ready", "start", "stop")
	//   - targets: Number of endpoints targeted
	//   - failures: Number of endpoints whose call failed
	RecordBroadcast(op string, targets, failures int)
}
