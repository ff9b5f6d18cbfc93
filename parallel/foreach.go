// Package parallel contains the bounded-concurrency ForEach() and ForEachChunk() loops
// used by preprocessing, feature extraction and the compute kernels.
package parallel

import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return // No iterations to perform
	}

	sem := make(chan struct{}, limit) // Semaphore with buffer size 'limit'
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		i := i            // Capture loop variable
		sem <- struct{}{} // Acquire semaphore
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore after function exits

			body(i)
		}(i)
	}

	wg.Wait() // Wait for all goroutines to finish
}

// ForEachChunk splits the range [0, length) into contiguous chunks of at most
// chunk elements and hands each [start, end) pair to body, with a limited
// number of concurrent goroutines. Useful when per-element work is too small
// to amortize a goroutine, such as row blocks of a matrix product.
func ForEachChunk(length, chunk, limit int, body func(start, end int)) {
	if chunk <= 0 {
		chunk = 1
	}
	chunks := (length + chunk - 1) / chunk
	ForEach(chunks, limit, func(i int) {
		start := i * chunk
		end := start + chunk
		if end > length {
			end = length
		}
		body(start, end)
	})
}
