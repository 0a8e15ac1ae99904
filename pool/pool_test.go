package pool

import (
	"sync"
	"testing"

	"github.com/born-ml/parfor/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsShortAffinity(t *testing.T) {
	_, err := New(Options{DegreeOfParallelism: 4, Affinity: []int{0}})
	require.Error(t, err)
}

func TestNew_DefaultsDegreeOfParallelism(t *testing.T) {
	p, err := New(Options{})
	require.NoError(t, err)
	defer p.Close()
	assert.GreaterOrEqual(t, p.NumThreads()+1, 1)
}

func TestPool_SimpleParallelForDeliversEachIndexOnceAcrossRealWorkers(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	const n = 10
	var mu sync.Mutex
	got := map[int64]bool{}
	seenThreads := map[int]bool{}
	parallel.SimpleParallelFor(p, n, func(i int64) {
		mu.Lock()
		defer mu.Unlock()
		got[i] = true
		seenThreads[p.CurrentThreadId()] = true
	})

	require.Len(t, got, n)
	for i := int64(0); i < n; i++ {
		assert.True(t, got[i], "index %d missing", i)
	}
	assert.GreaterOrEqual(t, len(seenThreads), 1)
}

func TestPool_ParallelForExactSum(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 8})
	require.NoError(t, err)
	defer p.Close()

	const n = int64(200_000)
	var mu sync.Mutex
	var sum int64
	parallel.ParallelFor(p, n, parallel.Cost{BytesLoaded: 1024, BytesStored: 1024, ComputeCycles: 100}, func(first, last int64) {
		var local int64
		for i := first; i < last; i++ {
			local += i
		}
		mu.Lock()
		sum += local
		mu.Unlock()
	})
	assert.Equal(t, n*(n-1)/2, sum)
}

func TestPool_SectionKeepsSameWorkersWarmAcrossLoops(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	err = parallel.WithSection(p, func(s *parallel.Section) error {
		var mu sync.Mutex
		firstRun := map[int]bool{}
		if err := s.RunInParallel(func(idx int) {
			mu.Lock()
			firstRun[idx] = true
			mu.Unlock()
		}, p.NumThreads()+1, 1); err != nil {
			return err
		}
		secondRun := map[int]bool{}
		if err := s.RunInParallel(func(idx int) {
			mu.Lock()
			secondRun[idx] = true
			mu.Unlock()
		}, p.NumThreads()+1, 1); err != nil {
			return err
		}
		assert.Equal(t, firstRun, secondRun)
		return nil
	})
	require.NoError(t, err)
}

func TestPool_ScheduleRunsOnAWorker(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	var sawWorker bool
	err = p.Schedule(func() {
		sawWorker = p.CurrentThreadId() != -1
	})
	require.NoError(t, err)
	assert.True(t, sawWorker)
}

func TestPool_ScheduleWithNoWorkersRunsInline(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 1})
	require.NoError(t, err)
	defer p.Close()

	ran := false
	err = p.Schedule(func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestPool_RunInParallelPropagatesPanicAsError(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	err = p.RunInParallel(func(idx int) { panic("boom") }, p.NumThreads(), 1)
	assert.Error(t, err)
}

func TestPool_CurrentThreadIdIsMinusOneOutsidePool(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, -1, p.CurrentThreadId())
}

func TestPool_StartStopProfilingReportsWorkerRuns(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4})
	require.NoError(t, err)
	defer p.Close()

	p.StartProfiling()
	parallel.SimpleParallelFor(p, 100, func(i int64) {})
	report := p.StopProfiling()
	assert.Contains(t, report, "thread_pool=pool")
	assert.Contains(t, report, "worker[0] num_run=1")
}

func TestDefaultDegreeOfParallelism_AtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultDegreeOfParallelism(), 1)
}

func TestPool_ExposesConfiguredSchedulingOptions(t *testing.T) {
	p, err := New(Options{DegreeOfParallelism: 4, ForceHybrid: true, DynamicBlockBase: 2})
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, p.ForceHybrid())
	assert.Equal(t, 2, p.DynamicBlockBase())
	assert.Equal(t, 16, parallel.DegreeOfParallelism(p))
}
