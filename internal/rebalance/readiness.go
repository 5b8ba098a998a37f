package rebalance

import (
	"context"
	"fmt"

	"github.com/drover-io/drover/internal/broadcast"
	"github.com/drover-io/drover/types"
)

// AwaitReadyEndpoints returns the endpoints currently able to accept an
// assignment, blocking until at least one is ready.
//
// Each attempt fetches a fresh endpoint snapshot and probes every handle with
// Ready. Handles whose probe errors are logged and excluded for this attempt
// only; they are not blacklisted and may pass a later probe. When no handle
// is ready the poller sleeps a fixed delay and retries from the top, so
// newly joined workers are picked up and departed workers drop out.
//
// An empty cluster is not an error, just a reason to keep waiting.
//
// Returns:
//   - []types.Endpoint: Non-empty ready subset, in directory listing order
//   - error: ctx.Err() on cancellation, or a directory error if the endpoint
//     set cannot be fetched
func (r *Rebalancer) AwaitReadyEndpoints(ctx context.Context) ([]types.Endpoint, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		endpoints, err := r.Cluster.Endpoints(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list endpoints: %w", err)
		}

		results := broadcast.Broadcast(ctx, "ready", endpoints,
			func(ctx context.Context, ep types.Endpoint) (struct{}, error) {
				return struct{}{}, ep.Ready(ctx)
			})

		r.Metrics.RecordBroadcast("ready", len(results), len(results.Failures()))

		ready := make([]types.Endpoint, 0, len(results))
		for _, res := range results {
			if res.Failed() {
				r.Logger.Warn("endpoint is not ready; excluding it from rebalance",
					"endpoint", res.Endpoint.ID(),
					"error", res.Err,
				)

				continue
			}
			ready = append(ready, res.Endpoint)
		}

		if len(ready) > 0 {
			r.Metrics.RecordReadyEndpoints(len(ready))

			return ready, nil
		}

		r.Logger.Info("no endpoints are ready; waiting", "retry_delay", r.ReadinessRetryDelay)

		if err := sleep(ctx, r.ReadinessRetryDelay); err != nil {
			return nil, err
		}
	}
}
