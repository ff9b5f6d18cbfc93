// Package kernels implements the float32 compute primitives behind the layer
// packages: blocked parallel matrix products, im2col patch gathering for
// convolutions, and small vector helpers. Block sizes are derived from the
// CPU cache geometry at init time.
package kernels

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

var (
	defaultWorkers = runtime.NumCPU()
	blockBytes     = 128 << 10
)

func init() {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		defaultWorkers = n
	}
	if l2 := cpuid.CPU.Cache.L2; l2 > 0 {
		blockBytes = l2 / 2
	}
}

// Workers reports the default goroutine bound for the blocked loops,
// one per logical core.
func Workers() int { return defaultWorkers }

// chooseRows sizes a row block so one block of the left operand plus the
// matching output rows stay inside half the per-core L2 cache.
func chooseRows(k, n int) int {
	per := 4 * (k + n)
	if per <= 0 {
		return 1
	}
	rows := blockBytes / per
	if rows < 1 {
		rows = 1
	}
	if rows > 256 {
		rows = 256
	}
	return rows
}
