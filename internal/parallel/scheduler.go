package parallel

import (
	"math"

	"github.com/born-ml/parfor/internal/xatomic"
)

// RangeFunc is the shape of a parallel-loop body: it is called one or more
// times with disjoint, exhaustive sub-ranges of [0, total).
type RangeFunc func(first, last int64)

// runFixedBlockSizeScheduling drives a LoopCounter to exhaustion across the
// pool, choosing between the static and dynamic block-shrinking policies
// based on the pool's DynamicBlockBase. total must be > blockSize; smaller
// loops are handled by the inline bypass in api.go before this is called.
func runFixedBlockSizeScheduling(p Pool, total, blockSize int64, fn RangeFunc) error {
	dOfP := int64(DegreeOfParallelism(p))

	if p.DynamicBlockBase() <= 0 {
		return runStatic(p, total, blockSize, dOfP, fn)
	}
	return runDynamic(p, total, blockSize, dOfP, fn)
}

// runStatic implements the static policy: fixed block_size for the whole
// loop, one work item per thread (never more than num_blocks).
func runStatic(p Pool, total, blockSize, dOfP int64, fn RangeFunc) error {
	numBlocks := total / blockSize
	numThreadsIncMain := int64(p.NumThreads()) + 1
	numWorkItems := numThreadsIncMain
	if numBlocks < numWorkItems {
		numWorkItems = numBlocks
	}

	lc := NewLoopCounter(uint64(total), uint64(dOfP), uint64(blockSize))
	runWork := func(idx int) {
		home := lc.HomeShard(uint32(idx))
		cursor := home
		for {
			start, end, ok := lc.ClaimIterations(home, &cursor, uint64(blockSize))
			if !ok {
				return
			}
			fn(int64(start), int64(end))
		}
	}
	return p.RunInParallel(runWork, int(numWorkItems), blockSize)
}

// runDynamic implements the dynamic policy: the shared, advisory
// `left` counter drives each worker's own block size down toward 1 as the
// remaining work shrinks, compressing the tail of the loop.
func runDynamic(p Pool, total, baseBlockSize, dOfP int64, fn RangeFunc) error {
	numOfBlocks := dOfP * int64(p.DynamicBlockBase())
	if numOfBlocks < 1 {
		numOfBlocks = 1
	}
	base := roundedDiv(total, numOfBlocks)
	if base < 1 {
		base = 1
	}

	var left xatomic.Int64
	left.Store(total)

	lc := NewLoopCounter(uint64(total), uint64(dOfP), uint64(base))
	runWork := func(idx int) {
		b := base
		home := lc.HomeShard(uint32(idx))
		cursor := home
		for {
			start, end, ok := lc.ClaimIterations(home, &cursor, uint64(b))
			if !ok {
				return
			}
			fn(int64(start), int64(end))
			todo := left.Add(-(int64(end) - int64(start)))
			if b > 1 {
				b = roundedDiv(todo, numOfBlocks)
				if b < 1 {
					b = 1
				}
			}
		}
	}

	numWorkItems := int64(p.NumThreads()) + 1
	if numOfBlocks < numWorkItems {
		numWorkItems = numOfBlocks
	}
	return p.RunInParallel(runWork, int(numWorkItems), base)
}

// roundedDiv rounds a/b to the nearest integer rather than truncating,
// since truncation would bias the dynamic policy's block size downward on
// every step.
func roundedDiv(a, b int64) int64 {
	if b == 0 {
		return a
	}
	return int64(math.Round(float64(a) / float64(b)))
}
