// Package broadcast fans a single remote operation out to a set of worker
// endpoints concurrently and collects every outcome.
package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/drover-io/drover/types"
)

// Operation is a typed remote call applied to one endpoint.
type Operation[T any] func(ctx context.Context, ep types.Endpoint) (T, error)

// Result captures the outcome of one endpoint's invocation.
type Result[T any] struct {
	Endpoint types.Endpoint
	Value    T
	Err      error
}

// Failed reports whether this endpoint's invocation returned an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Results holds one Result per targeted endpoint, in the same order as the
// input endpoint slice. No entry is ever dropped: len(Results) always equals
// the number of endpoints targeted.
type Results[T any] []Result[T]

// AllSucceeded reports whether every invocation completed without error.
func (rs Results[T]) AllSucceeded() bool {
	for _, r := range rs {
		if r.Failed() {
			return false
		}
	}

	return true
}

// Failures returns the subset of results whose invocation failed, preserving
// input order.
func (rs Results[T]) Failures() Results[T] {
	var failed Results[T]
	for _, r := range rs {
		if r.Failed() {
			failed = append(failed, r)
		}
	}

	return failed
}

// Broadcast invokes op against every endpoint concurrently and waits for all
// invocations to finish, however slow or broken an individual endpoint is.
//
// Failure isolation: a panic or error in one invocation is recorded in that
// endpoint's Result and never cancels sibling invocations or propagates to
// the caller. Broadcast itself never returns an error.
//
// The fan-out is unbounded; endpoint sets are cluster-sized, so no worker
// pool is needed. Exactly one remote call is made per endpoint per Broadcast.
//
// Parameters:
//   - ctx: Context passed through to each invocation
//   - name: Operation name, used in panic-recovery error messages
//   - endpoints: Target worker handles (a fresh snapshot from the directory)
//   - op: The remote call to apply
//
// Returns:
//   - Results[T]: One entry per endpoint, input order preserved
func Broadcast[T any](ctx context.Context, name string, endpoints []types.Endpoint, op Operation[T]) Results[T] {
	results := xsync.NewMap[int, Result[T]]()

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(idx int, target types.Endpoint) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					var zero T
					results.Store(idx, Result[T]{
						Endpoint: target,
						Value:    zero,
						Err:      fmt.Errorf("%s: endpoint %s panicked: %v", name, target.ID(), rec),
					})
				}
			}()

			value, err := op(ctx, target)
			results.Store(idx, Result[T]{Endpoint: target, Value: value, Err: err})
		}(i, ep)
	}
	wg.Wait()

	ordered := make(Results[T], len(endpoints))
	for i := range endpoints {
		r, _ := results.Load(i)
		ordered[i] = r
	}

	return ordered
}
