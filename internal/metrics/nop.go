// Package metrics provides types.MetricsCollector implementations for drover.
package metrics

import "github.com/drover-io/drover/types"

// NopMetrics is a metrics collector that discards all measurements.
//
// Used as the default when no collector is injected, so callers never need
// nil checks around metrics calls.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordEvent discards the measurement.
func (n *NopMetrics) RecordEvent(_ /* event */ string) {}

// RecordGateBlocked discards the measurement.
func (n *NopMetrics) RecordGateBlocked(_ /* gate */ string) {}

// RecordRebalanceDuration discards the measurement.
func (n *NopMetrics) RecordRebalanceDuration(_ /* seconds */ float64) {}

// RecordRebalanceAttempt discards the measurement.
func (n *NopMetrics) RecordRebalanceAttempt(_ /* success */ bool) {}

// RecordQuiesceAttempts discards the measurement.
func (n *NopMetrics) RecordQuiesceAttempts(_ /* attempts */ int) {}

// RecordReadyEndpoints discards the measurement.
func (n *NopMetrics) RecordReadyEndpoints(_ /* count */ int) {}

// RecordBroadcast discards the measurement.
func (n *NopMetrics) RecordBroadcast(_ /* op */ string, _, _ /* targets, failures */ int) {}
