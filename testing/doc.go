// Package testing provides test utilities for the drover library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for integration testing. It follows Go's convention
// of providing testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - NewTestLogger: Logger that writes through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    drovertest "github.com/drover-io/drover/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := drovertest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
