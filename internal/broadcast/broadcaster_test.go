package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drover-io/drover/types"
)

// testEndpoint is a minimal endpoint whose remote operations are unused; the
// broadcaster only needs ID() and an op closure.
type testEndpoint struct {
	id string
}

func (e *testEndpoint) ID() string                        { return e.id }
func (e *testEndpoint) Ready(_ context.Context) error     { return nil }
func (e *testEndpoint) StopStreaming(_ context.Context) error { return nil }
func (e *testEndpoint) StartStreaming(_ context.Context, _ types.Membership, _ string) error {
	return nil
}

func makeEndpoints(n int) []types.Endpoint {
	eps := make([]types.Endpoint, n)
	for i := range eps {
		eps[i] = &testEndpoint{id: fmt.Sprintf("ep-%d", i)}
	}

	return eps
}

func TestBroadcast_OneResultPerEndpoint(t *testing.T) {
	eps := makeEndpoints(5)

	results := Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, ep types.Endpoint) (string, error) {
			return ep.ID(), nil
		})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, eps[i], r.Endpoint, "result %d out of order", i)
		assert.Equal(t, eps[i].ID(), r.Value)
		assert.NoError(t, r.Err)
	}
	assert.True(t, results.AllSucceeded())
	assert.Empty(t, results.Failures())
}

func TestBroadcast_FailuresAreSubset(t *testing.T) {
	eps := makeEndpoints(6)
	failing := map[string]bool{"ep-1": true, "ep-4": true}

	results := Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, ep types.Endpoint) (struct{}, error) {
			if failing[ep.ID()] {
				return struct{}{}, errors.New("boom")
			}

			return struct{}{}, nil
		})

	require.Len(t, results, 6)
	assert.False(t, results.AllSucceeded())

	failures := results.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "ep-1", failures[0].Endpoint.ID())
	assert.Equal(t, "ep-4", failures[1].Endpoint.ID())

	for _, r := range results {
		assert.Equal(t, failing[r.Endpoint.ID()], r.Failed())
	}
}

func TestBroadcast_WaitsForSlowest(t *testing.T) {
	eps := makeEndpoints(4)
	const slowest = 150 * time.Millisecond

	start := time.Now()
	results := Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, ep types.Endpoint) (struct{}, error) {
			if ep.ID() == "ep-3" {
				time.Sleep(slowest)
			}

			return struct{}{}, nil
		})

	assert.GreaterOrEqual(t, time.Since(start), slowest)
	require.Len(t, results, 4)
	assert.True(t, results.AllSucceeded())
}

func TestBroadcast_RunsConcurrently(t *testing.T) {
	eps := makeEndpoints(8)
	const perCall = 100 * time.Millisecond

	start := time.Now()
	Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, _ types.Endpoint) (struct{}, error) {
			time.Sleep(perCall)

			return struct{}{}, nil
		})

	// Sequential execution would take 800ms.
	assert.Less(t, time.Since(start), 4*perCall)
}

func TestBroadcast_PanicIsolation(t *testing.T) {
	eps := makeEndpoints(3)

	var calls atomic.Int32
	results := Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, ep types.Endpoint) (struct{}, error) {
			calls.Add(1)
			if ep.ID() == "ep-1" {
				panic("endpoint exploded")
			}

			return struct{}{}, nil
		})

	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())

	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "ping")
	assert.Contains(t, results[1].Err.Error(), "ep-1")
	assert.Contains(t, results[1].Err.Error(), "endpoint exploded")
	assert.NoError(t, results[2].Err)
}

func TestBroadcast_EmptyEndpoints(t *testing.T) {
	results := Broadcast(context.Background(), "ping", nil,
		func(_ context.Context, _ types.Endpoint) (struct{}, error) {
			return struct{}{}, nil
		})

	assert.Empty(t, results)
	assert.True(t, results.AllSucceeded())
}

func TestBroadcast_ExactlyOneCallPerEndpoint(t *testing.T) {
	eps := makeEndpoints(10)
	counts := make([]atomic.Int32, 10)

	Broadcast(context.Background(), "ping", eps,
		func(_ context.Context, ep types.Endpoint) (struct{}, error) {
			var idx int
			_, err := fmt.Sscanf(ep.ID(), "ep-%d", &idx)
			require.NoError(t, err)
			counts[idx].Add(1)

			return struct{}{}, nil
		})

	for i := range counts {
		assert.Equal(t, int32(1), counts[i].Load(), "endpoint %d", i)
	}
}
