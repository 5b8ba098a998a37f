// Package natscluster implements the drover cluster directory over NATS.
//
// It maps the leader's collaborators onto NATS primitives:
//
//   - Configuration and control documents live in a JetStream KV bucket;
//     document watches are KV key watchers with content-hash dedupe so
//     replayed or redundant revisions do not trigger spurious rebalances.
//   - Member presence lives in a second KV bucket with a TTL; a hybrid
//     watcher-plus-polling membership watch emits change markers when the
//     live member set changes, including crashes surfacing as TTL expiry.
//   - Worker operations (ready, start streaming, stop streaming) use core
//     NATS request/reply on per-member subjects.
//
// The leader side uses Cluster; each member process runs a Registration,
// which advertises presence and serves the member's RPC operations.
package natscluster
