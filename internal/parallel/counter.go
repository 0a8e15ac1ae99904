package parallel

import (
	"sync/atomic"
	"unsafe"
)

// cacheLineBytes mirrors xatomic.CacheLineBytes; duplicated as an untyped
// constant here so shard's padding array length stays a compile-time
// constant without importing the xatomic package purely for one constant.
const cacheLineBytes = 64

// maxShards bounds the number of independent sub-counters a LoopCounter can
// use, and therefore the fixed size of its backing array.
const maxShards = 8

// taskGranularityFactor is the "max oversharding factor": at low thread
// counts we still want at least this many blocks scheduled per worker.
const taskGranularityFactor = 4

// shard is one cache-line-sized slice of the iteration space [0, N). next is
// the atomic high-water mark of iterations already handed out; end is the
// exclusive upper bound of the slice. next is monotonically non-decreasing;
// next >= end means the shard is drained.
type shard struct {
	next atomic.Uint64
	end  uint64
	_    [cacheLineBytes - unsafe.Sizeof(atomic.Uint64{}) - unsafe.Sizeof(uint64(0))]byte
}

func init() {
	if unsafe.Sizeof(shard{}) != cacheLineBytes {
		panic("parallel: shard does not fit exactly one cache line")
	}
}

// LoopCounter partitions [0, N) into up to maxShards cache-line-padded
// shards and hands out block-sized ranges from them via atomic fetch-and-add.
// A worker claims from its home shard first and rotates through the others
// once its own is drained, so total wall time is bounded by the slowest
// block rather than the slowest shard.
type LoopCounter struct {
	shards    [maxShards]shard
	numShards uint32
}

// NewLoopCounter builds a counter over [0, numIterations) for a loop with
// degree of parallelism dOfP and a nominal block size of blockSize.
//
// numIterations, dOfP and blockSize must all be >= 1; a caller that has
// already special-cased N == 0 (see ShouldParallelizeLoop) or wants a single
// inline block never needs to build one.
func NewLoopCounter(numIterations, dOfP, blockSize uint64) *LoopCounter {
	lc := &LoopCounter{numShards: numShards(numIterations, dOfP, blockSize)}

	numBlocks := numIterations / blockSize
	blocksPerShard := numBlocks / uint64(lc.numShards)
	iterationsPerShard := blocksPerShard * blockSize

	for s := uint32(0); s < lc.numShards; s++ {
		// Plain atomic store: visibility to worker goroutines does not depend
		// on it, since the pool's dispatch fork already establishes it.
		lc.shards[s].next.Store(uint64(s) * iterationsPerShard)
		if s == lc.numShards-1 {
			lc.shards[s].end = numIterations
		} else {
			lc.shards[s].end = uint64(s+1) * iterationsPerShard
		}
	}
	return lc
}

// numShards derives the shard count for a given loop: at least one block of
// work per shard, at most maxShards, and never more than the degree of
// parallelism (so at low thread counts each of dOfP threads gets its own
// shard).
func numShards(numIterations, dOfP, blockSize uint64) uint32 {
	numBlocks := numIterations / blockSize
	var n uint32
	switch {
	case numBlocks == 0:
		n = 1
	case numBlocks < maxShards:
		n = uint32(numBlocks)
	default:
		n = maxShards
	}
	if uint64(n) > dOfP {
		n = uint32(dOfP)
	}
	if n == 0 {
		n = 1
	}
	return n
}

// HomeShard returns the shard a worker with the given pool-assigned id
// starts claiming from. Home-shard assignment only depends on id and the
// shard count, so it is stable across successive loops with the same
// (N, blockSize, dOfP) — this is the affinity a caller relies on to keep
// a worker's cache warm across a sequence of loops over the same range.
func (lc *LoopCounter) HomeShard(id uint32) uint32 {
	return id % lc.numShards
}

// NumShards reports how many shards this counter was built with.
func (lc *LoopCounter) NumShards() uint32 {
	return lc.numShards
}

// ClaimIterations attempts to claim up to blockSize iterations, starting the
// search at *shardCursor (which the caller should initialize to its home
// shard and which this call mutates as it rotates through shards). It
// returns the claimed [start, end) range and ok == true, or ok == false once
// every shard reachable from the home shard is drained.
func (lc *LoopCounter) ClaimIterations(homeShard uint32, shardCursor *uint32, blockSize uint64) (start, end uint64, ok bool) {
	for {
		s := &lc.shards[*shardCursor]
		if s.next.Load() < s.end {
			claimed := s.next.Add(blockSize) - blockSize // fetch-and-add semantics: old value
			if claimed < s.end {
				return claimed, min(s.end, claimed+blockSize), true
			}
			// Lost the race, or overshot: the fetch-and-add already
			// happened and is discarded, no iterations were issued.
		}
		*shardCursor = (*shardCursor + 1) % lc.numShards
		if *shardCursor == homeShard {
			return 0, 0, false
		}
	}
}

// Drained reports whether every shard has been fully claimed. It is not
// used on the scheduling hot path; it exists so tests can assert the
// post-condition directly.
func (lc *LoopCounter) Drained() bool {
	for s := uint32(0); s < lc.numShards; s++ {
		if lc.shards[s].next.Load() < lc.shards[s].end {
			return false
		}
	}
	return true
}
