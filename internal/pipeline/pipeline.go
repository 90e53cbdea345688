// Package pipeline runs fork-join loops over index ranges.
package pipeline

import "sync"

// Task splits [0, size) into one contiguous chunk per worker, and waits for every chunk.
// fn must only write to data owned by index i.
func Task(workersCount int, size int, fn func(i int)) {
	TaskRange(workersCount, size, func(_ int, start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// TaskRange calls fn once per chunk of [0, size), with the worker owning it.
// Worker ids are in [0, workersCount), so they can index per worker scratch buffers.
func TaskRange(workersCount int, size int, fn func(worker, start, end int)) {
	if size <= 0 {
		return
	}
	// a single worker runs inline, spawning a goroutine is slower
	if workersCount <= 1 || size == 1 {
		fn(0, 0, size)
		return
	}

	workersCount = min(workersCount, size)
	chunkSize := (size + workersCount - 1) / workersCount

	var wg sync.WaitGroup
	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min(start+chunkSize, size)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(workerID, start, end int) {
			defer wg.Done()
			fn(workerID, start, end)
		}(workerID, start, end)
	}
	wg.Wait()
}
