package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drover-io/drover/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is deferred until first use so constructing a collector
// with the default registerer is safe even when the process never records
// anything (e.g. a follower that never becomes leader).
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	events            *prometheus.CounterVec
	gateBlocked       *prometheus.CounterVec
	rebalanceDuration prometheus.Histogram
	rebalanceAttempts *prometheus.CounterVec
	quiesceAttempts   prometheus.Histogram
	readyEndpoints    prometheus.Gauge
	broadcastTargets  *prometheus.CounterVec
	broadcastFailures *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Metrics namespace (defaults to "drover" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "drover"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.events = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "leader",
			Name:      "events_total",
			Help:      "Total leader events consumed, by event type.",
		}, []string{"event"})

		p.gateBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "leader",
			Name:      "gate_blocked_total",
			Help:      "Events that could not trigger a rebalance, by closed gate.",
		}, []string{"gate"})

		p.rebalanceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "duration_seconds",
			Help:      "Wall time of completed rebalance cycles in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		})

		p.rebalanceAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "attempts_total",
			Help:      "Rebalance pass attempts by result (success|failure).",
		}, []string{"result"})

		p.quiesceAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "quiesce_attempts",
			Help:      "Broadcast attempts needed to quiesce the cluster.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		})

		p.readyEndpoints = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "rebalance",
			Name:      "ready_endpoints",
			Help:      "Workers that passed the most recent readiness check.",
		})

		p.broadcastTargets = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "broadcast",
			Name:      "targets_total",
			Help:      "Endpoints targeted by RPC fan-outs, by operation.",
		}, []string{"op"})

		p.broadcastFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "broadcast",
			Name:      "failures_total",
			Help:      "Per-endpoint RPC failures within fan-outs, by operation.",
		}, []string{"op"})

		p.reg.MustRegister(p.events)
		p.reg.MustRegister(p.gateBlocked)
		p.reg.MustRegister(p.rebalanceDuration)
		p.reg.MustRegister(p.rebalanceAttempts)
		p.reg.MustRegister(p.quiesceAttempts)
		p.reg.MustRegister(p.readyEndpoints)
		p.reg.MustRegister(p.broadcastTargets)
		p.reg.MustRegister(p.broadcastFailures)
	})
}

// RecordEvent increments the consumed-event counter for the given event.
func (p *PrometheusCollector) RecordEvent(event string) {
	p.ensureRegistered()
	p.events.WithLabelValues(event).Inc()
}

// RecordGateBlocked increments the blocked-gate counter.
func (p *PrometheusCollector) RecordGateBlocked(gate string) {
	p.ensureRegistered()
	p.gateBlocked.WithLabelValues(gate).Inc()
}

// RecordRebalanceDuration observes a completed rebalance duration.
func (p *PrometheusCollector) RecordRebalanceDuration(seconds float64) {
	p.ensureRegistered()
	p.rebalanceDuration.Observe(seconds)
}

// RecordRebalanceAttempt counts a rebalance pass attempt by result.
func (p *PrometheusCollector) RecordRebalanceAttempt(success bool) {
	p.ensureRegistered()
	result := "failure"
	if success {
		result = "success"
	}
	p.rebalanceAttempts.WithLabelValues(result).Inc()
}

// RecordQuiesceAttempts observes the attempts a quiesce needed.
func (p *PrometheusCollector) RecordQuiesceAttempts(attempts int) {
	p.ensureRegistered()
	p.quiesceAttempts.Observe(float64(attempts))
}

// RecordReadyEndpoints sets the ready-endpoint gauge.
func (p *PrometheusCollector) RecordReadyEndpoints(count int) {
	p.ensureRegistered()
	p.readyEndpoints.Set(float64(count))
}

// RecordBroadcast counts a fan-out's targets and failures for the operation.
func (p *PrometheusCollector) RecordBroadcast(op string, targets, failures int) {
	p.ensureRegistered()
	p.broadcastTargets.WithLabelValues(op).Add(float64(targets))
	p.broadcastFailures.WithLabelValues(op).Add(float64(failures))
}
