package kernels

import "github.com/fashionet/classifier/parallel"

// MatMul computes dst = a·b where a is m×k, b is k×n and dst is m×n, all
// row-major. Rows of dst are computed in cache-sized blocks across workers
// goroutines. dst must not alias a or b.
func MatMul(dst, a, b []float32, m, k, n, workers int) {
	parallel.ForEachChunk(m, chooseRows(k, n), workers, func(start, end int) {
		for i := start; i < end; i++ {
			ci := dst[i*n : (i+1)*n]
			Fill(ci, 0)
			ai := a[i*k : (i+1)*k]
			for p, av := range ai {
				if av == 0 {
					// Zero activations are common after relu.
					continue
				}
				bp := b[p*n : (p+1)*n]
				for j, bv := range bp {
					ci[j] += av * bv
				}
			}
		}
	})
}

// MatMulBT computes dst = a·bᵀ where a is m×n, b is k×n and dst is m×k.
// Both operands are walked along their rows, so no transpose copy is needed.
func MatMulBT(dst, a, b []float32, m, n, k, workers int) {
	parallel.ForEachChunk(m, chooseRows(n, k), workers, func(start, end int) {
		for i := start; i < end; i++ {
			ai := a[i*n : (i+1)*n]
			di := dst[i*k : (i+1)*k]
			for p := 0; p < k; p++ {
				bp := b[p*n : (p+1)*n]
				var s float32
				for j, av := range ai {
					s += av * bp[j]
				}
				di[p] = s
			}
		}
	})
}

// MatMulAT computes dst = aᵀ·b where a is m×k, b is m×n and dst is k×n.
// Parallelism is over the k rows of dst, which are independent sums over m.
func MatMulAT(dst, a, b []float32, m, k, n, workers int) {
	parallel.ForEachChunk(k, chooseRows(m, n), workers, func(start, end int) {
		for p := start; p < end; p++ {
			dp := dst[p*n : (p+1)*n]
			Fill(dp, 0)
			for i := 0; i < m; i++ {
				av := a[i*k+p]
				if av == 0 {
					continue
				}
				bi := b[i*n : (i+1)*n]
				for j, bv := range bi {
					dp[j] += av * bv
				}
			}
		}
	})
}
