// Package pool is a concrete goroutine-based worker pool implementing
// internal/parallel.Pool. The core scheduling engine treats its worker pool
// as an external collaborator (see internal/parallel/pool.go); this package
// is that collaborator made concrete so the engine can be exercised
// end-to-end and benchmarked.
package pool

import (
	"runtime"
	"sync"

	"go.uber.org/automaxprocs/maxprocs"
)

// Options configures a Pool at construction time.
type Options struct {
	// Name identifies the pool in profiler output.
	Name string

	// DegreeOfParallelism is the total number of threads of execution the
	// pool should provide, counting the caller. <= 0 selects
	// DefaultDegreeOfParallelism().
	DegreeOfParallelism int

	// Affinity, if non-empty, must have at least DegreeOfParallelism-1
	// entries, entry i belonging to worker i. A worker with an entry locks
	// its goroutine to one OS thread with runtime.LockOSThread; the CPU
	// index values themselves are not applied, so no thread is pinned to a
	// CPU. A nil slice leaves worker goroutines unlocked.
	Affinity []int

	// LowLatencyHint asks workers to spin briefly before parking, trading
	// idle CPU for lower wake-up latency on bursty workloads.
	LowLatencyHint bool

	// ForceHybrid forces the hybrid-CPU block-oversubscription factor on
	// regardless of actual CPU topology (topology auto-detection is out of
	// scope; see internal/parallel/api.go's DegreeOfParallelism).
	ForceHybrid bool

	// DynamicBlockBase selects the fixed-block scheduling policy: <= 0 is
	// static, > 0 is dynamic with this as the per-thread block multiplier.
	DynamicBlockBase int
}

// DefaultOptions returns an Options with DegreeOfParallelism set from
// DefaultDegreeOfParallelism and every other field at its zero value.
func DefaultOptions() Options {
	return Options{
		Name:                "pool",
		DegreeOfParallelism: DefaultDegreeOfParallelism(),
	}
}

var maxprocsOnce sync.Once

// DefaultDegreeOfParallelism returns runtime.GOMAXPROCS(0) after ensuring
// it has been adjusted for any container CPU quota, matching the
// container-aware sizing automaxprocs is built for: a pool built with the
// naive runtime.NumCPU() on a CFS-throttled container oversubscribes and
// thrashes on context switches.
func DefaultDegreeOfParallelism() int {
	maxprocsOnce.Do(func() {
		_, _ = maxprocs.Set()
	})
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}
