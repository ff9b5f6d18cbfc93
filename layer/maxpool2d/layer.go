// Package maxpool2d implements a 2D max-pooling layer over NHWC float32 batches.
package maxpool2d

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/kernels"
	"github.com/fashionet/classifier/layer"
	"github.com/fashionet/classifier/parallel"
)

type MaxPool2DLayer struct {
	height, width, channels, pool, stride int
}

type MaxPool2D struct {
	height, width, channels, pool, stride int
	outH, outW                            int
	workers                               int
}

// New creates a new MaxPool2D layer with window and stride over
// height×width×channels inputs
func New(height, width, channels, pool, stride int) (o *MaxPool2DLayer, err error) {
	if height <= 0 || width <= 0 || channels <= 0 {
		return nil, errors.Errorf("maxpool2d: non-positive geometry %dx%dx%d", height, width, channels)
	}
	if pool <= 0 || stride <= 0 || pool > height || pool > width {
		return nil, errors.Errorf("maxpool2d: window %d/%d does not fit %dx%d input", pool, stride, height, width)
	}
	o = new(MaxPool2DLayer)
	o.height = height
	o.width = width
	o.channels = channels
	o.pool = pool
	o.stride = stride
	return
}

// MustNew creates a new MaxPool2D layer with window and stride over
// height×width×channels inputs
func MustNew(height, width, channels, pool, stride int) (o *MaxPool2DLayer) {
	o, err := New(height, width, channels, pool, stride)
	if err != nil {
		panic(err.Error())
	}
	return
}

// Lay turns the MaxPool2D layer into an instance
func (i *MaxPool2DLayer) Lay() layer.Instance {
	var o MaxPool2D
	o.height = i.height
	o.width = i.width
	o.channels = i.channels
	o.pool = i.pool
	o.stride = i.stride
	o.outH = kernels.ConvOut(i.height, i.pool, i.stride, 0)
	o.outW = kernels.ConvOut(i.width, i.pool, i.stride, 0)
	o.workers = kernels.Workers()
	return &o
}

// InSize reports the per-sample input length.
func (m *MaxPool2D) InSize() int { return m.height * m.width * m.channels }

// OutSize reports the per-sample output length.
func (m *MaxPool2D) OutSize() int { return m.outH * m.outW * m.channels }

// OutShape reports the spatial output form (height, width, channels).
func (m *MaxPool2D) OutShape() (h, w, c int) { return m.outH, m.outW, m.channels }

// Forward takes the maximum of every pooling window, channel by channel.
func (m *MaxPool2D) Forward(x []float32, batch int, train bool) []float32 {
	in, out := m.InSize(), m.OutSize()
	y := make([]float32, batch*out)
	parallel.ForEach(batch, m.workers, func(i int) {
		src := x[i*in : (i+1)*in]
		dst := y[i*out : (i+1)*out]
		for oy := 0; oy < m.outH; oy++ {
			for ox := 0; ox < m.outW; ox++ {
				for ch := 0; ch < m.channels; ch++ {
					best := float32(math.Inf(-1))
					for ky := 0; ky < m.pool; ky++ {
						iy := oy*m.stride + ky
						for kx := 0; kx < m.pool; kx++ {
							ix := ox*m.stride + kx
							if v := src[(iy*m.width+ix)*m.channels+ch]; v > best {
								best = v
							}
						}
					}
					dst[(oy*m.outW+ox)*m.channels+ch] = best
				}
			}
		}
	})
	return y
}
