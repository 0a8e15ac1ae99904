package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatic_ExactCover(t *testing.T) {
	p := newTestPool(7)
	const n = int64(10_000)

	var mu sync.Mutex
	seen := make([]bool, n)
	err := runFixedBlockSizeScheduling(p, n, 37, func(first, last int64) {
		mu.Lock()
		defer mu.Unlock()
		for i := first; i < last; i++ {
			require.False(t, seen[i])
			seen[i] = true
		}
	})
	require.NoError(t, err)
	for i, s := range seen {
		require.True(t, s, "iteration %d never delivered", i)
	}
}

func TestRunDynamic_PositiveBlockSizesEndingAtOne(t *testing.T) {
	p := newTestPool(7)
	p.dynamicBlockBase = 4
	const n = int64(1_000_000)

	var mu sync.Mutex
	var blocks []int64
	err := runFixedBlockSizeScheduling(p, n, 1, func(first, last int64) {
		mu.Lock()
		blocks = append(blocks, last-first)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	assert.Equal(t, int64(1), blocks[len(blocks)-1])

	// Every delivered block width must be positive; the sequence overall
	// trends downward, but this deliberately declines to pin an exact
	// trajectory, so only the coarse shape is asserted.
	for _, b := range blocks {
		require.Greater(t, b, int64(0))
	}
}

func TestRunStatic_ExactlyOneDispatchPerBlockWhenBlocksExceedThreads(t *testing.T) {
	p := newTestPool(3)
	var dispatches int64
	err := runFixedBlockSizeScheduling(p, 100, 10, func(first, last int64) {
		atomic.AddInt64(&dispatches, 1)
		require.LessOrEqual(t, last-first, int64(10))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), dispatches)
}

func TestRunFixedBlockSizeScheduling_PropagatesFirstPanic(t *testing.T) {
	p := newTestPool(3)
	err := runFixedBlockSizeScheduling(p, 100, 10, func(first, last int64) {
		panic("boom")
	})
	require.Error(t, err)
}
