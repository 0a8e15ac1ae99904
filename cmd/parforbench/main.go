// Command parforbench runs a synthetic ParallelFor workload and prints the
// resulting profiler report.
package main

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/born-ml/parfor/parallel"
	"github.com/born-ml/parfor/pool"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("parforbench %s\n", version)
		return
	}

	n := int64(10_000_000)
	workers := pool.DefaultDegreeOfParallelism()
	if len(os.Args) > 1 {
		if v, err := strconv.ParseInt(os.Args[1], 10, 64); err == nil {
			n = v
		}
	}
	if len(os.Args) > 2 {
		if v, err := strconv.Atoi(os.Args[2]); err == nil {
			workers = v
		}
	}

	fmt.Println("parforbench - parallel-for scheduling engine benchmark")
	fmt.Printf("n=%d degree_of_parallelism=%d\n\n", n, workers)

	p, err := pool.New(pool.Options{Name: "parforbench", DegreeOfParallelism: workers})
	if err != nil {
		fmt.Fprintln(os.Stderr, "parforbench:", err)
		os.Exit(1)
	}
	defer p.Close()

	p.StartProfiling()

	var sum int64
	start := time.Now()
	parallel.ParallelFor(p, n, parallel.Cost{ComputeCycles: 4}, func(first, last int64) {
		var local int64
		for i := first; i < last; i++ {
			local += i
		}
		atomic.AddInt64(&sum, local)
	})
	elapsed := time.Since(start)

	fmt.Printf("elapsed=%s sum=%d\n\n", elapsed, sum)
	fmt.Println(p.StopProfiling())
}
