package parallel

// SectionState is an opaque handle a Pool hands back from
// AllocateParallelSection. The core never inspects it; it only threads it
// back through Start/End/RunInParallelSection.
type SectionState any

// Pool is the interface this package consumes from the external
// non-blocking worker pool collaborator. It intentionally says nothing
// about how work is queued, stolen or parked — that machinery lives
// entirely on the implementation's side, e.g. package pool.
type Pool interface {
	// NumThreads returns the number of worker threads, excluding the
	// caller.
	NumThreads() int

	// CurrentThreadId returns the caller's id in [0, NumThreads()) if it is
	// itself a pool worker, or -1 otherwise.
	CurrentThreadId() int

	// RunInParallel dispatches n invocations of fn(idx) for idx in [0, n),
	// returning once every invocation has completed. blockSizeHint is
	// advisory, passed through for the pool's own scheduling heuristics or
	// profiling; it does not change how many invocations are dispatched.
	// The first panic recovered from any invocation of fn is returned as
	// an error; the rest are discarded.
	RunInParallel(fn func(idx int), n int, blockSizeHint int64) error

	// Schedule runs fn exactly once, on a worker if one is available, and
	// returns once it has completed.
	Schedule(fn func()) error

	// AllocateParallelSection reserves pool-owned state for a parallel
	// section. It must be released via EndParallelSection.
	AllocateParallelSection() (SectionState, error)

	// StartParallelSection transitions workers into a ready-to-run mode
	// for the given, already-allocated section.
	StartParallelSection(s SectionState) error

	// EndParallelSection returns a section's state to the pool and allows
	// workers to park again.
	EndParallelSection(s SectionState) error

	// RunInParallelSection is RunInParallel routed through an active
	// section's state, so workers stay warm between successive loops.
	RunInParallelSection(s SectionState, fn func(idx int), n int, blockSizeHint int64) error

	// EnableSpinning and DisableSpinning are hints only; a Pool may ignore
	// them entirely.
	EnableSpinning()
	DisableSpinning()

	// DynamicBlockBase reports the pool's configured dynamic_block_base:
	// <= 0 selects the static fixed-block scheduling policy,
	// > 0 selects the dynamic policy with a target block count of
	// DegreeOfParallelism() * DynamicBlockBase().
	DynamicBlockBase() int

	// ForceHybrid reports whether hybrid-CPU block oversubscription has
	// been forced on regardless of actual CPU topology. CPU topology
	// auto-detection is out of scope for this package; this is purely the
	// configured override.
	ForceHybrid() bool

	// StartProfiling and StopProfiling toggle and serialize the pool's
	// worker-side profiling counters.
	StartProfiling()
	StopProfiling() string
}
