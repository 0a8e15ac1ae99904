package parallel

import "sync"

// sectionRegistry tracks, per Pool, which goroutine currently owns an
// active section — the Go stand-in for a thread_local ParallelSection*
// current_parallel_section. Keyed by pool identity: exactly one section
// may be alive per goroutine per pool at a time.
type sectionRegistry struct {
	mu      sync.Mutex
	holders map[uint64]struct{}
}

var registries sync.Map // Pool -> *sectionRegistry

func registryFor(p Pool) *sectionRegistry {
	if r, ok := registries.Load(p); ok {
		return r.(*sectionRegistry)
	}
	r, _ := registries.LoadOrStore(p, &sectionRegistry{holders: make(map[uint64]struct{})})
	return r.(*sectionRegistry)
}

// Section is a scoped handle that keeps a pool's workers warm across a
// series of nested parallel loops. It exclusively owns the pool-side
// SectionState it was constructed with; the pool holds only a non-owning
// back reference while the section is active.
type Section struct {
	pool  Pool
	state SectionState
	gid   uint64
	done  bool
}

// AcquireSection opens a parallel section on p for the calling goroutine.
// It panics with a *ContractViolationError if the calling goroutine already
// holds a section on this pool — nested sections are a programming error,
// never a recoverable one.
func AcquireSection(p Pool) *Section {
	gid := goroutineID()
	reg := registryFor(p)

	reg.mu.Lock()
	if _, held := reg.holders[gid]; held {
		reg.mu.Unlock()
		violate("AcquireSection", "goroutine %d already holds a parallel section on this pool", gid)
	}
	reg.holders[gid] = struct{}{}
	reg.mu.Unlock()

	state, err := p.AllocateParallelSection()
	if err != nil {
		reg.mu.Lock()
		delete(reg.holders, gid)
		reg.mu.Unlock()
		violate("AcquireSection", "pool could not allocate section state: %v", err)
	}
	if err := p.StartParallelSection(state); err != nil {
		reg.mu.Lock()
		delete(reg.holders, gid)
		reg.mu.Unlock()
		violate("AcquireSection", "pool could not start section: %v", err)
	}

	return &Section{pool: p, state: state, gid: gid}
}

// Release ends the section and lets the pool's workers park again. It is
// idempotent: calling it more than once, or via a deferred Close on all
// exit paths including a panic unwinding through the caller, is safe.
func (s *Section) Release() {
	if s == nil || s.done {
		return
	}
	s.done = true
	_ = s.pool.EndParallelSection(s.state)

	reg := registryFor(s.pool)
	reg.mu.Lock()
	delete(reg.holders, s.gid)
	reg.mu.Unlock()
}

// Close is an alias for Release so *Section satisfies io.Closer and can be
// deferred directly: defer parallel.AcquireSection(p).Close().
func (s *Section) Close() error {
	s.Release()
	return nil
}

// RunInParallel routes a dispatch through this section's pool-owned state
// so workers stay hot between the loops issued inside the section.
func (s *Section) RunInParallel(fn func(idx int), n int, blockSizeHint int64) error {
	return s.pool.RunInParallelSection(s.state, fn, n, blockSizeHint)
}

// WithSection runs f with a freshly acquired section on p and guarantees
// Release runs on every exit path, including f panicking — the closure-
// driven equivalent of a destructor-based RAII handle.
func WithSection(p Pool, f func(s *Section) error) error {
	s := AcquireSection(p)
	defer s.Release()
	return f(s)
}
