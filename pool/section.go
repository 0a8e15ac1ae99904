package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/born-ml/parfor/internal/parallel"
)

// sectionState is the pool-owned state backing one open parallel section.
// It only needs to track whether it is still open: keeping workers warm is
// handled entirely by toggling the pool's spinning hint, since workers are
// already persistent goroutines regardless of any section.
type sectionState struct {
	active atomic.Bool
}

// AllocateParallelSection reserves a new, inactive section handle.
func (p *Pool) AllocateParallelSection() (parallel.SectionState, error) {
	return &sectionState{}, nil
}

// StartParallelSection marks s active and enables spinning so workers stay
// hot between the loops the caller is about to issue inside the section.
func (p *Pool) StartParallelSection(s parallel.SectionState) error {
	ss, ok := s.(*sectionState)
	if !ok {
		return fmt.Errorf("pool: not a section allocated by this pool")
	}
	ss.active.Store(true)
	p.EnableSpinning()
	return nil
}

// EndParallelSection marks s inactive and, unless the pool was configured
// with LowLatencyHint, lets workers go back to parking between dispatches.
func (p *Pool) EndParallelSection(s parallel.SectionState) error {
	ss, ok := s.(*sectionState)
	if !ok {
		return fmt.Errorf("pool: not a section allocated by this pool")
	}
	ss.active.Store(false)
	if !p.opts.LowLatencyHint {
		p.DisableSpinning()
	}
	return nil
}

// RunInParallelSection is RunInParallel with an extra check that s is still
// open, matching internal/parallel/section.go's expectation that a
// released Section can no longer dispatch.
func (p *Pool) RunInParallelSection(s parallel.SectionState, fn func(idx int), n int, blockSizeHint int64) error {
	ss, ok := s.(*sectionState)
	if !ok {
		return fmt.Errorf("pool: not a section allocated by this pool")
	}
	if !ss.active.Load() {
		return fmt.Errorf("pool: section already ended")
	}
	return p.RunInParallel(fn, n, blockSizeHint)
}
