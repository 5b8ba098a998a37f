package rebalance

import (
	"context"
	"fmt"

	"github.com/drover-io/drover/internal/broadcast"
	"github.com/drover-io/drover/types"
)

// StopStreaming quiesces the cluster: it broadcasts a stop to every current
// endpoint and repeats until an attempt succeeds for all of them.
//
// Each attempt re-fetches the endpoint set, so workers that crashed or
// dropped out of discovery since the last attempt no longer count against
// success, and recovered workers are told to stop again.
//
// If more than one attempt was needed, an extra quiet period is waited after
// the first fully successful attempt: an endpoint that failed earlier may
// still be mid-shutdown even though it has since vanished from discovery, and
// the quiet period gives it time to finish stopping before the cluster is
// reused.
//
// There is no maximum attempt count. The loop runs until success or until ctx
// is cancelled.
//
// Returns:
//   - error: nil once the cluster is quiesced, ctx.Err() on cancellation,
//     or a directory error if the endpoint set cannot be fetched
func (r *Rebalancer) StopStreaming(ctx context.Context) error {
	attempt := 1

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		endpoints, err := r.Cluster.Endpoints(ctx)
		if err != nil {
			return fmt.Errorf("failed to list endpoints: %w", err)
		}

		results := broadcast.Broadcast(ctx, "stop", endpoints,
			func(ctx context.Context, ep types.Endpoint) (struct{}, error) {
				return struct{}{}, ep.StopStreaming(ctx)
			})

		r.Metrics.RecordBroadcast("stop", len(results), len(results.Failures()))

		if results.AllSucceeded() {
			if attempt != 1 {
				r.Logger.Warn("multiple attempts were required to quiesce the cluster; waiting for unreachable nodes to terminate",
					"attempts", attempt,
					"quiet_period", r.QuietPeriod,
				)
				if err := sleep(ctx, r.QuietPeriod); err != nil {
					return err
				}
			}

			r.Logger.Info("cluster quiesced", "attempts", attempt)
			r.Metrics.RecordQuiesceAttempts(attempt)

			return nil
		}

		for _, failure := range results.Failures() {
			r.Logger.Warn("endpoint failed to stop streaming",
				"endpoint", failure.Endpoint.ID(),
				"error", failure.Err,
			)
		}

		r.Logger.Warn("attempt to quiesce the cluster failed; will retry", "attempt", attempt)

		attempt++
		if err := sleep(ctx, r.QuiesceRetryDelay); err != nil {
			return err
		}
	}
}
