package rebalance

import (
	"context"
	"sync"
	"time"

	"github.com/drover-io/drover/internal/logging"
	"github.com/drover-io/drover/internal/metrics"
	"github.com/drover-io/drover/types"
)

// fakeEndpoint is a scriptable worker handle. Behaviors are expressed as
// "fail the first N calls" counters so retry loops can be exercised without
// real timing dependencies.
type fakeEndpoint struct {
	id string

	mu                sync.Mutex
	readyFailuresLeft int
	stopFailuresLeft  int
	startFailuresLeft int

	readyCalls  int
	stopCalls   int
	startCalls  []types.Membership
	startConfig []string
}

var _ types.Endpoint = (*fakeEndpoint)(nil)

func newFakeEndpoint(id string) *fakeEndpoint {
	return &fakeEndpoint{id: id}
}

func (e *fakeEndpoint) ID() string { return e.id }

func (e *fakeEndpoint) Ready(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.readyCalls++
	if e.readyFailuresLeft > 0 {
		e.readyFailuresLeft--

		return types.ErrEndpointNotReady
	}

	return nil
}

func (e *fakeEndpoint) StopStreaming(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopCalls++
	if e.stopFailuresLeft > 0 {
		e.stopFailuresLeft--

		return types.ErrConnectivity
	}

	return nil
}

func (e *fakeEndpoint) StartStreaming(_ context.Context, membership types.Membership, config string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startCalls = append(e.startCalls, membership)
	e.startConfig = append(e.startConfig, config)
	if e.startFailuresLeft > 0 {
		e.startFailuresLeft--

		return types.ErrConnectivity
	}

	return nil
}

func (e *fakeEndpoint) stats() (ready, stop, start int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.readyCalls, e.stopCalls, len(e.startCalls)
}

func (e *fakeEndpoint) memberships() []types.Membership {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.Membership, len(e.startCalls))
	copy(out, e.startCalls)

	return out
}

// fakeCluster serves a mutable endpoint snapshot and a fixed config document.
// The watch methods are never called by the rebalance package.
type fakeCluster struct {
	mu           sync.Mutex
	endpoints    []types.Endpoint
	endpointsErr error
	config       string
	configErr    error
}

var _ types.Cluster = (*fakeCluster)(nil)

func newFakeCluster(config string, endpoints ...types.Endpoint) *fakeCluster {
	return &fakeCluster{config: config, endpoints: endpoints}
}

func (c *fakeCluster) Endpoints(_ context.Context) ([]types.Endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpointsErr != nil {
		return nil, c.endpointsErr
	}
	out := make([]types.Endpoint, len(c.endpoints))
	copy(out, c.endpoints)

	return out, nil
}

func (c *fakeCluster) ReadConfig(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.config, c.configErr
}

func (c *fakeCluster) setEndpoints(endpoints ...types.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoints = endpoints
}

func (c *fakeCluster) WatchConfig(_ context.Context) (types.ConfigWatch, error) {
	panic("not used by rebalance")
}

func (c *fakeCluster) WatchControl(_ context.Context) (types.ControlWatch, error) {
	panic("not used by rebalance")
}

func (c *fakeCluster) WatchMembership(_ context.Context, _ time.Duration) (types.MembershipWatch, error) {
	panic("not used by rebalance")
}

// newTestRebalancer builds a Rebalancer with millisecond timings so retry
// loops complete quickly in tests.
func newTestRebalancer(cluster types.Cluster) *Rebalancer {
	rb, err := New(&Config{
		Cluster:             cluster,
		Validator:           types.JSONConfigValidator,
		QuiesceRetryDelay:   5 * time.Millisecond,
		QuietPeriod:         20 * time.Millisecond,
		ReadinessRetryDelay: 5 * time.Millisecond,
		AssignRetryDelay:    5 * time.Millisecond,
		Logger:              logging.NewNop(),
		Metrics:             metrics.NewNop(),
	})
	if err != nil {
		panic(err)
	}

	return rb
}
