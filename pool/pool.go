package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/born-ml/parfor/internal/parallel"
	"golang.org/x/sync/errgroup"
)

// Pool is a goroutine-based implementation of internal/parallel.Pool.
// Workers are persistent goroutines dispatched to over per-worker
// channels, so a given worker id maps to the same goroutine for the
// pool's whole lifetime: the affinity the sharded loop counter's
// HomeShard depends on across successive ParallelFor calls.
type Pool struct {
	opts       Options
	numThreads int
	affinity   []int
	profiler   *parallel.Profiler

	workerCh  []chan job
	workerGID sync.Map // goroutineID() -> worker index, populated by workerLoop

	spinning atomic.Bool

	scheduleRR atomic.Uint64

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// New starts a Pool of opts.DegreeOfParallelism total threads (counting the
// caller). It returns once every worker goroutine has been started, without
// waiting for them to be scheduled.
func New(opts Options) (*Pool, error) {
	dop := opts.DegreeOfParallelism
	if dop <= 0 {
		dop = DefaultDegreeOfParallelism()
	}
	if dop < 1 {
		return nil, fmt.Errorf("pool: degree of parallelism must be >= 1, got %d", dop)
	}
	numThreads := dop - 1
	if len(opts.Affinity) > 0 && len(opts.Affinity) < numThreads {
		return nil, fmt.Errorf("pool: affinity has %d entries, need >= %d", len(opts.Affinity), numThreads)
	}
	name := opts.Name
	if name == "" {
		name = "pool"
	}

	p := &Pool{
		opts:       opts,
		numThreads: numThreads,
		affinity:   opts.Affinity,
		profiler:   parallel.NewProfiler(name, numThreads),
		workerCh:   make([]chan job, numThreads),
		closed:     make(chan struct{}),
	}
	if opts.LowLatencyHint {
		p.spinning.Store(true)
	}
	for i := 0; i < numThreads; i++ {
		p.workerCh[i] = make(chan job)
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p, nil
}

// NumThreads returns the number of worker goroutines, excluding the
// caller.
func (p *Pool) NumThreads() int { return p.numThreads }

// CurrentThreadId returns the caller's worker index if it is itself
// running inside one of this pool's worker goroutines, or -1 otherwise.
func (p *Pool) CurrentThreadId() int {
	if v, ok := p.workerGID.Load(goroutineID()); ok {
		return v.(int)
	}
	return -1
}

// RunInParallel dispatches fn(idx) for idx in [0, n), running the first
// NumThreads() invocations on dedicated worker goroutines and any
// remaining invocation (n is at most NumThreads()+1 in practice, per
// internal/parallel's own scheduling) on the calling goroutine. It blocks
// until every invocation has returned and reports the first panic
// recovered from any of them.
func (p *Pool) RunInParallel(fn func(idx int), n int, blockSizeHint int64) error {
	if n <= 0 {
		return nil
	}
	p.profiler.LogStartAndCoreAndBlock(blockSizeHint)
	defer p.profiler.LogEnd(parallel.EventDistribution)

	workerCount := n
	extra := 0
	if n > p.numThreads {
		workerCount = p.numThreads
		extra = n - workerCount
	}

	var g errgroup.Group
	for i := 0; i < workerCount; i++ {
		idx := i
		g.Go(func() error { return p.dispatchTo(idx, fn) })
	}
	var callerErr error
	for i := 0; i < extra; i++ {
		if err := safeRunCaller(workerCount+i, fn); err != nil && callerErr == nil {
			callerErr = err
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return callerErr
}

// Schedule runs fn exactly once on a worker chosen round-robin, or inline
// if the pool has no workers.
func (p *Pool) Schedule(fn func()) error {
	if p.numThreads == 0 {
		return safeRunCaller(0, func(int) { fn() })
	}
	idx := int(p.scheduleRR.Add(1)-1) % p.numThreads
	return p.dispatchTo(idx, func(int) { fn() })
}

// EnableSpinning and DisableSpinning toggle whether idle workers poll their
// channel briefly before parking on a blocking receive.
func (p *Pool) EnableSpinning()  { p.spinning.Store(true) }
func (p *Pool) DisableSpinning() { p.spinning.Store(false) }

// DynamicBlockBase reports the configured dynamic block-shrinking base.
func (p *Pool) DynamicBlockBase() int { return p.opts.DynamicBlockBase }

// ForceHybrid reports whether hybrid-CPU block oversubscription is forced.
func (p *Pool) ForceHybrid() bool { return p.opts.ForceHybrid }

// StartProfiling and StopProfiling toggle and drain the pool's profiler.
func (p *Pool) StartProfiling()       { p.profiler.Start() }
func (p *Pool) StopProfiling() string { return p.profiler.Stop() }

// Snapshot returns the pool's current profiler stats without disabling
// profiling, for callers that want to sample mid-run.
func (p *Pool) Snapshot() parallel.ProfilerReport { return p.profiler.Snapshot() }

// Close stops every worker goroutine and waits for them to exit. A closed
// Pool must not be used again.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	p.wg.Wait()
	return nil
}
