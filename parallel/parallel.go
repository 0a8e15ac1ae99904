// Package parallel exposes a parallel-for scheduling engine for the
// compute-bound loops inside operator kernels: shard a range of work
// across a worker pool, size the blocks each worker claims from a cost
// estimate, and keep the pool warm across a whole sequence of loops with
// a parallel section.
//
// The engine itself never touches an operator's data; it only decides how
// a range [0, n) is split and dispatched. Callers own both the pool
// implementation (see package pool for a concrete goroutine-based one)
// and the loop body.
//
// # Example
//
//	p, err := pool.New(pool.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	parallel.ParallelFor(p, int64(len(data)), parallel.Cost{ComputeCycles: 10}, func(first, last int64) {
//	    for i := first; i < last; i++ {
//	        data[i] *= 2
//	    }
//	})
//
// A sequence of loops that all touch the same data benefits from a
// parallel section, which keeps workers from parking between calls:
//
//	err := parallel.WithSection(p, func(s *parallel.Section) error {
//	    return s.RunInParallel(func(idx int) { ... }, p.NumThreads()+1, 0)
//	})
package parallel

import (
	"github.com/born-ml/parfor/internal/parallel"
)

// Pool is the worker-pool collaborator the scheduling engine dispatches
// through. See package pool for a concrete implementation.
type Pool = parallel.Pool

// SectionState is the opaque, pool-owned handle backing an open
// [Section]. Implementations of [Pool] hand these back from
// AllocateParallelSection.
type SectionState = parallel.SectionState

// Cost estimates the resources one iteration of a loop consumes, driving
// [BlockSize]'s and [ParallelFor]'s choice of how many iterations to
// group per dispatch.
type Cost = parallel.Cost

// RangeFunc is the shape of a parallel loop body: it is called one or
// more times with disjoint, exhaustive sub-ranges of [0, total).
type RangeFunc = parallel.RangeFunc

// AlignFunc adjusts a candidate block size up to the nearest size a
// caller's data layout prefers. It must return a value >= its input.
type AlignFunc = parallel.AlignFunc

// Event enumerates the instants [Profiler] can time.
type Event = parallel.Event

const (
	EventDistribution        = parallel.EventDistribution
	EventDistributionEnqueue = parallel.EventDistributionEnqueue
	EventRun                 = parallel.EventRun
	EventWait                = parallel.EventWait
	EventWaitRevoke          = parallel.EventWaitRevoke
)

// MainThreadReport, WorkerReport and ProfilerReport are structured
// snapshots of a [Profiler]'s accumulated stats. See [Profiler.Snapshot].
type MainThreadReport = parallel.MainThreadReport
type WorkerReport = parallel.WorkerReport
type ProfilerReport = parallel.ProfilerReport

// Profiler accumulates per-caller and per-worker timing statistics for a
// pool. See [NewProfiler].
type Profiler = parallel.Profiler

// Section is a scoped handle that keeps a pool's workers warm across a
// series of parallel loops. See [AcquireSection] and [WithSection].
type Section = parallel.Section

// ContractViolationError reports a caller error the scheduling engine
// treats as unrecoverable: a negative loop count, mismatched
// LogStart/LogEnd pairing, a nested parallel section on the same
// goroutine. These are always delivered via panic, never a returned
// error, since they indicate a programming mistake rather than a runtime
// condition a caller could reasonably recover from.
type ContractViolationError = parallel.ContractViolationError

// DegreeOfParallelism returns the effective worker count p's scheduling
// decisions are sized against: NumThreads()+1, oversubscribed by 4x when
// p.ForceHybrid() is set. A nil p reports 1 (the inline, no-pool case).
func DegreeOfParallelism(p Pool) int { return parallel.DegreeOfParallelism(p) }

// ShouldParallelizeLoop reports whether a loop of numIterations split
// into blocks of blockSize is worth dispatching through p at all.
func ShouldParallelizeLoop(p Pool, numIterations, blockSize int64) bool {
	return parallel.ShouldParallelizeLoop(p, numIterations, blockSize)
}

// BlockSize picks how many iterations of a Cost-numIterations loop each
// worker should claim per dispatch. It starts from the size that gives
// about four blocks per unit of parallelism, then grows the block toward
// at most twice that size as long as each step loses no more than 1% of
// parallel efficiency (see [Cost]).
//
// Example:
//
//	block := parallel.BlockSize(int64(len(data)), parallel.Cost{ComputeCycles: 4}, nil, int64(parallel.DegreeOfParallelism(p)))
func BlockSize(n int64, cost Cost, align AlignFunc, degreeOfParallelism int64) int64 {
	return parallel.BlockSize(n, cost, align, degreeOfParallelism)
}

// ParallelForFixedBlockSize runs fn over [0, n) in blocks of exactly
// blockSize iterations, skipping the cost model entirely. When
// p.DynamicBlockBase() is > 0, blockSize only decides whether the loop runs
// inline; the dynamic policy then picks its own, shrinking block sizes.
func ParallelForFixedBlockSize(p Pool, n, blockSize int64, fn RangeFunc) {
	parallel.ParallelForFixedBlockSize(p, n, blockSize, fn)
}

// ParallelFor runs fn over [0, n), deriving a block size from cost and
// p's degree of parallelism. Loops too small or too cheap to be worth
// splitting run fn(0, n) inline on the caller.
//
// Example:
//
//	parallel.ParallelFor(p, int64(len(rows)), parallel.Cost{ComputeCycles: 20}, func(first, last int64) {
//	    for i := first; i < last; i++ {
//	        rows[i] = transform(rows[i])
//	    }
//	})
func ParallelFor(p Pool, n int64, cost Cost, fn RangeFunc) { parallel.ParallelFor(p, n, cost, fn) }

// SimpleParallelFor invokes fn(i) exactly once for every i in [0, n),
// using a fixed block size of 1.
func SimpleParallelFor(p Pool, n int64, fn func(i int64)) { parallel.SimpleParallelFor(p, n, fn) }

// TryParallelFor calls fn(0, n) inline when p is nil, without ParallelFor's
// checks on n (so fn is called even for n == 0), and otherwise delegates to
// ParallelFor. Intended for call sites that may or may not have been handed
// a pool.
func TryParallelFor(p Pool, n int64, cost Cost, fn RangeFunc) {
	parallel.TryParallelFor(p, n, cost, fn)
}

// Schedule runs fn exactly once, on a pool worker if one is available,
// blocking until it returns. A nil p runs fn inline.
func Schedule(p Pool, fn func()) { parallel.Schedule(p, fn) }

// AcquireSection opens a parallel section on p for the calling goroutine,
// keeping its workers from parking between the loops issued through the
// returned [Section] until [Section.Release] is called. It panics with a
// *ContractViolationError if the calling goroutine already holds a
// section on p.
func AcquireSection(p Pool) *Section { return parallel.AcquireSection(p) }

// WithSection runs f with a freshly acquired section on p, guaranteeing
// the section is released on every exit path including a panic
// propagating out of f.
//
// Example:
//
//	err := parallel.WithSection(p, func(s *parallel.Section) error {
//	    return s.RunInParallel(work, p.NumThreads()+1, 0)
//	})
func WithSection(p Pool, f func(s *Section) error) error { return parallel.WithSection(p, f) }

// NewProfiler builds a [Profiler] sized for a pool with the given name
// and number of worker threads. Log calls made before [Profiler.Start]
// are no-ops, so hot-path code can unconditionally instrument itself with
// LogStart/LogEnd.
func NewProfiler(poolName string, numWorkers int) *Profiler {
	return parallel.NewProfiler(poolName, numWorkers)
}
