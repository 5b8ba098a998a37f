// Package rebalance implements the quiesce-then-reassign cycle the leader
// runs whenever cluster membership, configuration, or the pause state
// changes.
//
// The strategy is deliberately stop-the-world: every rebalance pass first
// tells every worker to stop streaming, then hands out fresh membership
// assignments to the workers that are ready. No worker receives new work
// until every worker has been told to stop, so no two workers ever hold
// overlapping partitions.
//
// The retry loops here use fixed delays and have no attempt caps. Quiescing
// must stay safe under arbitrarily long partial outages, so the loops run
// until success or cancellation; the absence of an upper bound is a known
// characteristic of the design, not an oversight.
package rebalance

import (
	"context"
	"fmt"
	"time"

	"github.com/drover-io/drover/types"
)

// Rebalancer orchestrates a full reassignment of work across the cluster:
// validate config, quiesce everything, wait for ready workers, then assign
// membership slots sequentially.
type Rebalancer struct {
	Config
}

// New creates a Rebalancer from a validated config.
//
// Parameters:
//   - cfg: Rebalancer configuration (Cluster, Validator, Logger, Metrics required)
//
// Returns:
//   - *Rebalancer: Ready-to-use rebalancer
//   - error: Validation error if required fields are missing
func New(cfg *Config) (*Rebalancer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()

	return &Rebalancer{Config: *cfg}, nil
}

// Rebalance runs one full reassignment cycle.
//
// The configuration document is fetched and validated once, up front. A
// validation failure aborts the rebalance as a hard error: a malformed
// document will not fix itself, and the leader loop retries naturally on the
// next config change event.
//
// After validation the restart loop runs until every ready worker accepts
// its assignment or ctx is cancelled:
//
//  1. Quiesce the whole cluster, including workers not being reassigned.
//  2. Await at least one ready endpoint.
//  3. Assign Membership{i+1, N} to worker i, sequentially in readiness order.
//
// A failed startStreaming call does not unwind the workers already assigned
// in this pass; the next iteration's unconditional quiesce re-establishes
// consistency. This whole-pass restart is intentionally coarse.
//
// Returns:
//   - error: nil on success, ctx.Err() on cancellation, or a wrapped
//     ErrInvalidConfigDocument when validation fails
func (r *Rebalancer) Rebalance(ctx context.Context) error {
	config, err := r.Cluster.ReadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read config document: %w", err)
	}

	if err := r.Validator(config); err != nil {
		return fmt.Errorf("config document rejected: %w", err)
	}

	started := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.Logger.Info("rebalancing the cluster")

		if err := r.StopStreaming(ctx); err != nil {
			return err
		}

		endpoints, err := r.AwaitReadyEndpoints(ctx)
		if err != nil {
			return err
		}

		if r.assignAll(ctx, endpoints, config) {
			r.Metrics.RecordRebalanceAttempt(true)
			r.Metrics.RecordRebalanceDuration(time.Since(started).Seconds())

			return nil
		}

		r.Metrics.RecordRebalanceAttempt(false)

		if err := sleep(ctx, r.AssignRetryDelay); err != nil {
			return err
		}
	}
}

// assignAll hands out membership slots sequentially and reports whether every
// assignment succeeded. Assignment order follows the readiness listing; the
// order itself is not meaningful, but sequential calls keep partial-failure
// recovery simple to reason about.
func (r *Rebalancer) assignAll(ctx context.Context, endpoints []types.Endpoint, config string) bool {
	clusterSize := len(endpoints)

	for i, ep := range endpoints {
		if ctx.Err() != nil {
			return false
		}

		membership := types.Membership{MemberNumber: i + 1, ClusterSize: clusterSize}

		r.Logger.Info("assigning group membership",
			"membership", membership.String(),
			"endpoint", ep.ID(),
		)

		if err := ep.StartStreaming(ctx, membership, config); err != nil {
			r.Logger.Warn("failed to assign group membership; restarting rebalance",
				"membership", membership.String(),
				"endpoint", ep.ID(),
				"error", err,
			)

			return false
		}
	}

	return true
}
