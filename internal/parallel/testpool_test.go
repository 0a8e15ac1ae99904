package parallel

import (
	"fmt"
	"sync"
)

// testPool is a minimal, self-contained Pool implementation used only by
// this package's own unit tests, so they can exercise the scheduler and
// API without depending on the concrete package pool (which itself depends
// on this package, and is exercised end-to-end by its own tests instead).
type testPool struct {
	numThreads        int
	dynamicBlockBase  int
	forceHybrid       bool
	currentThreadIDFn func() int

	mu       sync.Mutex
	sections map[*testSectionState]bool
}

type testSectionState struct{ active bool }

func newTestPool(numThreads int) *testPool {
	return &testPool{numThreads: numThreads, sections: make(map[*testSectionState]bool)}
}

func (p *testPool) NumThreads() int { return p.numThreads }

func (p *testPool) CurrentThreadId() int {
	if p.currentThreadIDFn != nil {
		return p.currentThreadIDFn()
	}
	return -1
}

func (p *testPool) RunInParallel(fn func(idx int), n int, _ int64) (err error) {
	if n <= 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in worker: %v", r)
		}
	}()
	var wg sync.WaitGroup
	errs := make([]error, n)
	for idx := 0; idx < n; idx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[idx] = fmt.Errorf("panic in worker %d: %v", idx, r)
				}
			}()
			fn(idx)
		}(idx)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (p *testPool) Schedule(fn func()) error {
	fn()
	return nil
}

func (p *testPool) AllocateParallelSection() (SectionState, error) {
	return &testSectionState{}, nil
}

func (p *testPool) StartParallelSection(s SectionState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sections[s.(*testSectionState)] = true
	s.(*testSectionState).active = true
	return nil
}

func (p *testPool) EndParallelSection(s SectionState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sections, s.(*testSectionState))
	s.(*testSectionState).active = false
	return nil
}

func (p *testPool) RunInParallelSection(s SectionState, fn func(idx int), n int, hint int64) error {
	if !s.(*testSectionState).active {
		return fmt.Errorf("section not active")
	}
	return p.RunInParallel(fn, n, hint)
}

func (p *testPool) EnableSpinning()  {}
func (p *testPool) DisableSpinning() {}

func (p *testPool) DynamicBlockBase() int { return p.dynamicBlockBase }
func (p *testPool) ForceHybrid() bool     { return p.forceHybrid }

func (p *testPool) StartProfiling()        {}
func (p *testPool) StopProfiling() string  { return "" }
