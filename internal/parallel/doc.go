// Package parallel is the core of a user-space, task-parallel loop
// executor: given a loop of N iterations of roughly-uniform cost, it
// partitions the iteration space across a fixed worker pool plus the
// caller, executes the ranges in parallel, and returns when every
// iteration has run exactly once.
//
// The package defines three tightly coupled mechanisms:
//
//   - a sharded loop counter (counter.go) that distributes iterations
//     across cache-line-aligned shards and preserves per-worker affinity
//     across successive loops;
//   - a cost-model-driven block sizer (blocksize.go) that balances
//     parallel efficiency against fork/join overhead and tail effect;
//   - a parallel-section lifecycle (section.go) that amortises worker
//     wake-up costs across a series of nested parallel loops.
//
// The underlying worker pool — its work queues, stealing and parking — is
// an external collaborator, described here only by the Pool interface this
// package consumes. See package pool for a concrete implementation.
package parallel
