package parallel

// hybridOversubscriptionFactor is the multiplier applied to block count
// (never thread count) on a hybrid-CPU pool, to smooth over cores that run
// at different speeds.
const hybridOversubscriptionFactor = 4

// DegreeOfParallelism returns the effective worker count used for sizing
// decisions: NumThreads()+1 normally, or (NumThreads()+1)*4 when the pool
// has force-hybrid oversubscription enabled. p may be nil, in which case
// the degree of parallelism of the inline (no-pool) case is 1.
func DegreeOfParallelism(p Pool) int {
	if p == nil {
		return 1
	}
	d := p.NumThreads() + 1
	if p.ForceHybrid() {
		d *= hybridOversubscriptionFactor
	}
	return d
}

// ShouldParallelizeLoop reports whether a loop of numIterations, split into
// blocks of blockSize, is worth dispatching through the pool at all.
//
// It declines trivial loops (a single block of work) and loops where the
// pool has no thread to add beyond the caller. The extra-thread check below
// only special-cases the NumThreads()==1 case; re-entrant parallelism from
// inside a worker at higher thread counts is permitted but its behaviour is
// otherwise unspecified.
func ShouldParallelizeLoop(p Pool, numIterations, blockSize int64) bool {
	if blockSize <= 0 || numIterations <= blockSize {
		return false
	}
	if p == nil {
		return false
	}
	if p.CurrentThreadId() == -1 && p.NumThreads() == 0 {
		return false
	}
	if p.CurrentThreadId() != -1 && p.NumThreads() == 1 {
		return false
	}
	return true
}

// ParallelForFixedBlockSize runs fn over [0, n) in blocks of exactly
// blockSize iterations (the tail block may be smaller), skipping the cost
// model entirely. It validates n >= 0, bypasses the pool for trivial loops,
// and otherwise delegates to the fixed-block scheduler. When the pool's
// DynamicBlockBase() is > 0, that scheduler's dynamic policy picks its own,
// shrinking block sizes and blockSize only decides the inline bypass.
func ParallelForFixedBlockSize(p Pool, n, blockSize int64, fn RangeFunc) {
	if n < 0 {
		violate("ParallelForFixedBlockSize", "n must be >= 0, got %d", n)
	}
	if n == 0 {
		return
	}
	if blockSize <= 0 {
		blockSize = 1
	}
	if p == nil || n <= blockSize {
		fn(0, n)
		return
	}
	if err := runFixedBlockSizeScheduling(p, n, blockSize, fn); err != nil {
		panic(err)
	}
}

// ParallelFor runs fn over [0, n) using a block size derived from cost and
// the pool's degree of parallelism. Trivial loops, or
// loops the cost model predicts need only a single worker, run fn(0, n)
// inline on the caller.
func ParallelFor(p Pool, n int64, cost Cost, fn RangeFunc) {
	if n < 0 {
		violate("ParallelFor", "n must be >= 0, got %d", n)
	}
	if n == 0 {
		return
	}
	dOfP := int64(DegreeOfParallelism(p))
	if !ShouldParallelizeLoop(p, n, 1) || predictedWorkers(n, cost, dOfP) == 1 {
		fn(0, n)
		return
	}
	block := BlockSize(n, cost, nil, dOfP)
	ParallelForFixedBlockSize(p, n, block, fn)
}

// singleWorkerCostThreshold is the total estimated work, in the same units
// as Cost.taskSize, below which spinning up more than one worker costs more
// than it saves. It stands in for Eigen's TensorCostModel::numThreads
// startup-cost heuristic.
const singleWorkerCostThreshold = 100_000.0

// predictedWorkers estimates how many of dOfP workers the cost model
// expects to actually use for n iterations of the given cost: a loop whose
// total estimated work sits under singleWorkerCostThreshold isn't worth
// spreading across more than one worker at all.
func predictedWorkers(n int64, cost Cost, dOfP int64) int64 {
	if n <= 0 {
		return 1
	}
	total := float64(n) * cost.taskSize()
	if total <= singleWorkerCostThreshold {
		return 1
	}
	w := int64(total / singleWorkerCostThreshold)
	if w < 1 {
		w = 1
	}
	if w > dOfP {
		w = dOfP
	}
	return w
}

// SimpleParallelFor invokes fn(i) exactly once for every i in [0, n), using
// a fixed block size of 1.
func SimpleParallelFor(p Pool, n int64, fn func(i int64)) {
	ParallelForFixedBlockSize(p, n, 1, func(first, last int64) {
		for i := first; i < last; i++ {
			fn(i)
		}
	})
}

// Schedule runs fn exactly once, on a pool worker if one is available, and
// blocks until it returns. A nil pool runs fn inline.
func Schedule(p Pool, fn func()) {
	if p == nil {
		fn()
		return
	}
	if err := p.Schedule(fn); err != nil {
		panic(err)
	}
}

// TryParallelFor is a wrapper for host operators that may or may not have
// been handed a pool: a nil p runs fn(0, n) inline without ParallelFor's
// checks on n (so fn is called even for n == 0); any other p is passed
// straight to ParallelFor.
func TryParallelFor(p Pool, n int64, cost Cost, fn RangeFunc) {
	if p == nil {
		fn(0, n)
		return
	}
	ParallelFor(p, n, cost, fn)
}
