// Package parallel splits row ranges across goroutines for data-parallel loops.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize runs fn over [0, n) in contiguous chunks, one per CPU.
// fn must only touch rows inside its own [start, end) range.
func Parallelize(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when n is below threshold,
// where goroutine overhead outweighs the work.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	Parallelize(n, fn)
}
