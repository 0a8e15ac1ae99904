package parallel

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Event enumerates the fixed set of instants the profiler can time:
// dispatch overhead, enqueue overhead, actual run time, and time spent
// waiting on or revoking a wait for outstanding work.
type Event int

const (
	EventDistribution Event = iota
	EventDistributionEnqueue
	EventRun
	EventWait
	EventWaitRevoke
	numEvents
)

func (e Event) String() string {
	switch e {
	case EventDistribution:
		return "Distribution"
	case EventDistributionEnqueue:
		return "DistributionEnqueue"
	case EventRun:
		return "Run"
	case EventWait:
		return "Wait"
	case EventWaitRevoke:
		return "WaitRevoke"
	default:
		return "UnknownEvent"
	}
}

// coreIdentity samples an OS-reported CPU identity. CPU-ID / core pinning
// mechanics are platform-specific and out of scope here; this returns -1
// (unknown) by default and exists purely as the seam a platform-specific
// build could fill in with GetCurrentProcessorNumber, sched_getcpu, or
// similar.
var coreIdentity = func() int { return -1 }

// mainThreadStat is the per-goroutine-per-pool bookkeeping a caller thread
// accumulates while driving loops. It is not safe for concurrent use by
// design: exactly one goroutine ever owns a given instance.
type mainThreadStat struct {
	points []time.Time
	events [numEvents]time.Duration
	blocks []int64
	core   int
}

func (s *mainThreadStat) logCore() {
	s.core = coreIdentity()
}

func (s *mainThreadStat) logBlockSize(blockSize int64) {
	s.blocks = append(s.blocks, blockSize)
}

func (s *mainThreadStat) logStart() {
	s.points = append(s.points, time.Now())
}

func (s *mainThreadStat) logEnd(evt Event) {
	if len(s.points) == 0 {
		violate("LogEnd", "LogStart must pair with LogEnd (event %s)", evt)
	}
	last := len(s.points) - 1
	s.events[evt] += time.Since(s.points[last])
	s.points = s.points[:last]
}

func (s *mainThreadStat) logEndAndStart(evt Event) {
	if len(s.points) == 0 {
		violate("LogEndAndStart", "LogStart must pair with LogEnd (event %s)", evt)
	}
	last := len(s.points) - 1
	now := time.Now()
	s.events[evt] += now.Sub(s.points[last])
	s.points[last] = now
}

// reset validates the timestamp stack is empty,
// snapshots the accumulated stats into a MainThreadReport and clears them
// for the next profiling window.
func (s *mainThreadStat) reset() MainThreadReport {
	if len(s.points) != 0 {
		violate("Reset", "LogStart must pair with LogEnd, %d unmatched", len(s.points))
	}
	r := MainThreadReport{
		Core:       s.core,
		BlockSizes: append([]int64(nil), s.blocks...),
	}
	for e := Event(0); e < numEvents; e++ {
		r.Events[e] = s.events[e]
	}
	s.blocks = nil
	s.events = [numEvents]time.Duration{}
	return r
}

// workerStat is the per-worker-thread bookkeeping the profiler retains for
// the lifetime of the pool, indexed by worker id.
type workerStat struct {
	mu       sync.Mutex
	numRun   int64
	core     int
	lastCore time.Time
}

func (w *workerStat) logRun() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.numRun++
	now := time.Now()
	// Resample CPU identity at most every 10ms; querying it on every run
	// would turn a cheap counter increment into a syscall on the hot path.
	if w.core < 0 || now.Sub(w.lastCore) > 10*time.Millisecond {
		w.core = coreIdentity()
		w.lastCore = now
	}
}

// MainThreadReport is a structured snapshot of one caller thread's
// accumulated profiler stats, the typed counterpart to Stop's serialized
// string form.
type MainThreadReport struct {
	Core       int
	BlockSizes []int64
	Events     [numEvents]time.Duration
}

// WorkerReport is a structured snapshot of one worker's accumulated stats.
type WorkerReport struct {
	ID     int
	NumRun int64
	Core   int
}

// ProfilerReport is the structured form of Profiler.Stop's textual dump.
type ProfilerReport struct {
	PoolName string
	Main     MainThreadReport
	Workers  []WorkerReport
}

// Profiler accumulates per-main-thread and per-worker statistics for a
// pool. Log calls are no-ops until StartProfiling is called, so hot-path
// callers can unconditionally instrument their code with LogStart/LogEnd
// and pay nothing when profiling is disabled.
type Profiler struct {
	poolName string
	enabled  bool // only ever flipped from the goroutine that owns the pool

	mainMu    sync.Mutex
	mainStats map[uint64]*mainThreadStat // keyed by goroutineID

	workers []workerStat
}

// NewProfiler builds a Profiler sized for a pool with the given name and
// number of worker threads.
func NewProfiler(poolName string, numWorkers int) *Profiler {
	return &Profiler{
		poolName:  poolName,
		mainStats: make(map[uint64]*mainThreadStat),
		workers:   make([]workerStat, numWorkers),
	}
}

// Start enables profiling; log calls made before Start are discarded.
func (p *Profiler) Start() { p.enabled = true }

// Enabled reports whether profiling is currently active.
func (p *Profiler) Enabled() bool { return p.enabled }

func (p *Profiler) mainStat() *mainThreadStat {
	gid := goroutineID()
	p.mainMu.Lock()
	defer p.mainMu.Unlock()
	s, ok := p.mainStats[gid]
	if !ok {
		s = &mainThreadStat{core: -1}
		p.mainStats[gid] = s
	}
	return s
}

// LogStartAndCoreAndBlock records the caller's core identity and the block
// size chosen for a dispatch, then pushes a start timestamp.
func (p *Profiler) LogStartAndCoreAndBlock(blockSize int64) {
	if !p.enabled {
		return
	}
	s := p.mainStat()
	s.logCore()
	s.logBlockSize(blockSize)
	s.logStart()
}

// LogCoreAndBlock records core identity and block size without timing.
func (p *Profiler) LogCoreAndBlock(blockSize int64) {
	if !p.enabled {
		return
	}
	s := p.mainStat()
	s.logCore()
	s.logBlockSize(blockSize)
}

// LogStart pushes a start timestamp on the calling goroutine's stack.
func (p *Profiler) LogStart() {
	if !p.enabled {
		return
	}
	p.mainStat().logStart()
}

// LogEnd pops the last start timestamp and adds the elapsed time to evt.
func (p *Profiler) LogEnd(evt Event) {
	if !p.enabled {
		return
	}
	p.mainStat().logEnd(evt)
}

// LogEndAndStart is the fused pop-then-push variant used between two
// adjacent phases without changing stack depth.
func (p *Profiler) LogEndAndStart(evt Event) {
	if !p.enabled {
		return
	}
	p.mainStat().logEndAndStart(evt)
}

// LogThreadRun records that worker id ran one dispatched item.
func (p *Profiler) LogThreadRun(id int) {
	if !p.enabled {
		return
	}
	if id < 0 || id >= len(p.workers) {
		return
	}
	p.workers[id].logRun()
}

// Snapshot returns a typed report without disabling profiling, unlike Stop.
func (p *Profiler) Snapshot() ProfilerReport {
	r := ProfilerReport{PoolName: p.poolName}
	r.Main = p.mainStat().reset()
	r.Workers = make([]WorkerReport, len(p.workers))
	for i := range p.workers {
		p.workers[i].mu.Lock()
		r.Workers[i] = WorkerReport{ID: i, NumRun: p.workers[i].numRun, Core: p.workers[i].core}
		p.workers[i].mu.Unlock()
	}
	return r
}

// Stop disables profiling and returns a stable, human-readable textual
// report. The grammar is not meant to be machine-parsed; it exists for a
// human skimming benchmark output, and every accumulated field appears in
// it.
func (p *Profiler) Stop() string {
	if !p.enabled {
		panic(&ContractViolationError{Op: "Stop", Msg: "profiler not started yet"})
	}
	r := p.Snapshot()
	p.enabled = false

	var b strings.Builder
	fmt.Fprintf(&b, "thread_pool=%s\n", r.PoolName)
	fmt.Fprintf(&b, "main_thread core=%d blocks=%v", r.Main.Core, r.Main.BlockSizes)
	for e := Event(0); e < numEvents; e++ {
		fmt.Fprintf(&b, " %s=%dus", Event(e), r.Main.Events[e].Microseconds())
	}
	b.WriteByte('\n')
	for _, w := range r.Workers {
		fmt.Fprintf(&b, "worker[%d] num_run=%d core=%d\n", w.ID, w.NumRun, w.Core)
	}
	return b.String()
}
