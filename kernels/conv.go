package kernels

// ConvOut reports the spatial output size of a convolution or pooling window
// over size input elements: (size + 2*pad - k)/stride + 1.
func ConvOut(size, k, stride, pad int) int {
	return (size+2*pad-k)/stride + 1
}

// SamePad reports the padding that keeps the spatial size unchanged for a
// stride-1 window of odd size k.
func SamePad(k int) int { return (k - 1) / 2 }

// Im2col gathers the convolution patches of one NHWC image into dst so a
// convolution becomes a single matrix product against an HWIO weight matrix.
// src holds h×w×c values; dst receives outH*outW rows of kh*kw*c values each,
// with zeros where a window hangs over the padded border. dst must have
// ConvOut(h,kh,stride,pad) * ConvOut(w,kw,stride,pad) * kh*kw*c elements.
func Im2col(src []float32, h, w, c, kh, kw, stride, pad int, dst []float32) {
	outH := ConvOut(h, kh, stride, pad)
	outW := ConvOut(w, kw, stride, pad)
	idx := 0
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			for ky := 0; ky < kh; ky++ {
				iy := oy*stride - pad + ky
				for kx := 0; kx < kw; kx++ {
					ix := ox*stride - pad + kx
					if iy < 0 || iy >= h || ix < 0 || ix >= w {
						Fill(dst[idx:idx+c], 0)
						idx += c
						continue
					}
					off := (iy*w + ix) * c
					copy(dst[idx:idx+c], src[off:off+c])
					idx += c
				}
			}
		}
	}
}
