// Package types contains the core types and interfaces shared across the
// drover library.
//
// This package is imported by both the root drover package and the internal
// packages, which avoids import cycles: internal packages depend on types
// without depending on the root package, while the root package re-exports
// the public pieces via type aliases.
//
// The package defines:
//   - LeaderEvent: the event tags consumed by the leader loop
//   - Membership: the (member number, cluster size) pair delivered to workers
//   - Cluster and Endpoint: the collaborator interfaces the core orchestrates
//   - Logger, MetricsCollector, ConfigValidator: injectable dependencies
package types
