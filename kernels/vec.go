package kernels

// Fill sets every element of dst to v.
func Fill(dst []float32, v float32) {
	for i := range dst {
		dst[i] = v
	}
}

// Axpy computes y[i] += alpha * x[i]. The slices must have equal length.
func Axpy(alpha float32, x, y []float32) {
	for i, v := range x {
		y[i] += alpha * v
	}
}

// AddBias adds bias[j] to column j of every row of the rows×cols row-major
// matrix m.
func AddBias(m, bias []float32, rows, cols int) {
	for i := 0; i < rows; i++ {
		row := m[i*cols : (i+1)*cols]
		for j, b := range bias {
			row[j] += b
		}
	}
}

// Scale multiplies every element of dst by alpha.
func Scale(alpha float32, dst []float32) {
	for i := range dst {
		dst[i] *= alpha
	}
}
