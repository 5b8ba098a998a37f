package rebalance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitReadyEndpoints_AllReady(t *testing.T) {
	eps := []*fakeEndpoint{newFakeEndpoint("a"), newFakeEndpoint("b")}
	cluster := newFakeCluster(`{}`, eps[0], eps[1])
	rb := newTestRebalancer(cluster)

	ready, err := rb.AwaitReadyEndpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, ready, 2)
	assert.Equal(t, "a", ready[0].ID())
	assert.Equal(t, "b", ready[1].ID())
}

func TestAwaitReadyEndpoints_FiltersNotReady(t *testing.T) {
	notReady := newFakeEndpoint("b")
	notReady.readyFailuresLeft = 1000

	cluster := newFakeCluster(`{}`, newFakeEndpoint("a"), notReady, newFakeEndpoint("c"))
	rb := newTestRebalancer(cluster)

	ready, err := rb.AwaitReadyEndpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, ready, 2)

	// Listing order is preserved for the ready subset.
	assert.Equal(t, "a", ready[0].ID())
	assert.Equal(t, "c", ready[1].ID())
}

func TestAwaitReadyEndpoints_WaitsUntilOneBecomesReady(t *testing.T) {
	slowStarter := newFakeEndpoint("slow")
	slowStarter.readyFailuresLeft = 3

	cluster := newFakeCluster(`{}`, slowStarter)
	rb := newTestRebalancer(cluster)

	start := time.Now()
	ready, err := rb.AwaitReadyEndpoints(context.Background())
	require.NoError(t, err)
	require.Len(t, ready, 1)

	// Three failed polls before success means at least three retry delays.
	assert.GreaterOrEqual(t, time.Since(start), 3*rb.ReadinessRetryDelay)

	readyCalls, _, _ := slowStarter.stats()
	assert.Equal(t, 4, readyCalls)
}

func TestAwaitReadyEndpoints_EmptyClusterWaitsForJoin(t *testing.T) {
	cluster := newFakeCluster(`{}`)
	rb := newTestRebalancer(cluster)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cluster.setEndpoints(newFakeEndpoint("late-joiner"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ready, err := rb.AwaitReadyEndpoints(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "late-joiner", ready[0].ID())
}

func TestAwaitReadyEndpoints_Cancelled(t *testing.T) {
	cluster := newFakeCluster(`{}`) // stays empty forever
	rb := newTestRebalancer(cluster)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := rb.AwaitReadyEndpoints(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitReadyEndpoints_EndpointListingError(t *testing.T) {
	cluster := newFakeCluster(`{}`)
	cluster.endpointsErr = errors.New("directory unavailable")
	rb := newTestRebalancer(cluster)

	_, err := rb.AwaitReadyEndpoints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory unavailable")
}
