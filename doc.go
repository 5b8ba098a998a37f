// Package drover provides the leader-side coordinator of a multi-node
// data-replication connector.
//
// Exactly one node in the cluster runs the coordinator at a time (leadership
// arbitration is external). The coordinator watches for cluster-membership
// changes, configuration changes, and pause/resume control signals, and in
// response recomputes a non-overlapping partition assignment across all live
// workers, instructing each worker over RPC to start or stop replicating its
// assigned partitions.
//
// # Quick Start
//
//	cluster, err := natscluster.New(ctx, nc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := drover.DefaultConfig()
//	leader, err := drover.New(&cfg, cluster)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := leader.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer leader.Stop(context.Background())
//
//	<-leader.Done()
//	if err := leader.Err(); err != nil {
//	    log.Fatal(err) // a watch failed; the process cannot trust its view
//	}
//
// # Rebalancing
//
// The rebalance strategy is intentionally stop-the-world: every pass first
// quiesces every worker, then waits for at least one ready worker, then
// assigns membership slots 1..N sequentially. No worker receives new work
// until every worker has been told to stop, so no two workers ever hold
// overlapping partitions.
//
// # Gates
//
// A rebalance runs only once all three gates are open: at least one
// membership event seen, at least one config event seen, and not paused.
// Rebalancing before the first membership snapshot or before a configuration
// document exists would assign work from stale or absent inputs.
//
// See the examples/ directory for a complete working example.
package drover
