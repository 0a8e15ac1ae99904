package parallel

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardSizeIsOneCacheLine(t *testing.T) {
	require.EqualValues(t, cacheLineBytes, unsafe.Sizeof(shard{}))
}

func TestLoopCounter_ExactCover(t *testing.T) {
	cases := []struct {
		n, dOfP, block uint64
	}{
		{n: 0, dOfP: 4, block: 1},
		{n: 1, dOfP: 4, block: 1},
		{n: 10, dOfP: 4, block: 3},
		{n: 1000, dOfP: 8, block: 17},
		{n: 1_000_000, dOfP: 9, block: 27778},
	}
	for _, c := range cases {
		if c.n == 0 {
			continue // a zero-iteration loop never constructs a counter
		}
		lc := NewLoopCounter(c.n, c.dOfP, c.block)

		var mu sync.Mutex
		seen := make([]bool, c.n)
		var wg sync.WaitGroup
		numWorkers := int(c.dOfP)
		for id := 0; id < numWorkers; id++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				home := lc.HomeShard(uint32(id))
				cursor := home
				for {
					start, end, ok := lc.ClaimIterations(home, &cursor, c.block)
					if !ok {
						return
					}
					require.LessOrEqual(t, end-start, c.block)
					require.Greater(t, end, start)
					mu.Lock()
					for i := start; i < end; i++ {
						require.False(t, seen[i], "iteration %d claimed twice", i)
						seen[i] = true
					}
					mu.Unlock()
				}
			}(id)
		}
		wg.Wait()

		for i, s := range seen {
			require.True(t, s, "iteration %d never claimed", i)
		}
		require.True(t, lc.Drained())
	}
}

func TestLoopCounter_HomeShardAffinity(t *testing.T) {
	lc1 := NewLoopCounter(1024, 8, 16)
	lc2 := NewLoopCounter(1024, 8, 16)

	for id := uint32(0); id < 8; id++ {
		assert.Equal(t, lc1.HomeShard(id), lc2.HomeShard(id),
			"home shard for worker %d must be stable across loops with identical N, block size and d_of_p", id)
	}
}

func TestLoopCounter_NumShardsBounds(t *testing.T) {
	// Never more than maxShards.
	lc := NewLoopCounter(1_000_000, 64, 1)
	assert.LessOrEqual(t, lc.NumShards(), uint32(maxShards))

	// Never more shards than blocks of work.
	lc2 := NewLoopCounter(3, 8, 1)
	assert.LessOrEqual(t, lc2.NumShards(), uint32(3))

	// Never more shards than the degree of parallelism.
	lc3 := NewLoopCounter(1_000_000, 2, 1)
	assert.Equal(t, uint32(2), lc3.NumShards())
}
