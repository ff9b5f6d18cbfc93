// Package conv2d implements a 2D convolution layer over NHWC float32 batches.
// Instances are forward-only: the convolutional base they form is used frozen.
package conv2d

import (
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/kernels"
	"github.com/fashionet/classifier/layer"
	"github.com/fashionet/classifier/parallel"
)

type Conv2DLayer struct {
	height, width, channels, filters int
	kernel, stride, pad              int
}

type Conv2D struct {
	height, width, channels, filters int
	kernel, stride, pad              int
	outH, outW                       int
	w                                []float32
	b                                []float32
	workers                          int
}

// MustNew creates a new Conv2D layer over height×width×channels inputs
// with the given filter count, square kernel, stride and padding
func MustNew(height, width, channels, filters, kernel, stride, pad int) *Conv2DLayer {
	o, err := New(height, width, channels, filters, kernel, stride, pad)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new Conv2D layer over height×width×channels inputs
// with the given filter count, square kernel, stride and padding
func New(height, width, channels, filters, kernel, stride, pad int) (o *Conv2DLayer, err error) {
	if height <= 0 || width <= 0 || channels <= 0 || filters <= 0 {
		return nil, errors.Errorf("conv2d: non-positive geometry %dx%dx%d -> %d", height, width, channels, filters)
	}
	if kernel <= 0 || stride <= 0 || pad < 0 {
		return nil, errors.Errorf("conv2d: bad window kernel=%d stride=%d pad=%d", kernel, stride, pad)
	}
	if kernels.ConvOut(height, kernel, stride, pad) <= 0 || kernels.ConvOut(width, kernel, stride, pad) <= 0 {
		return nil, errors.Errorf("conv2d: window %d/%d/%d does not fit %dx%d input", kernel, stride, pad, height, width)
	}
	o = new(Conv2DLayer)
	o.height = height
	o.width = width
	o.channels = channels
	o.filters = filters
	o.kernel = kernel
	o.stride = stride
	o.pad = pad
	return
}

// Lay turns the Conv2D layer into an instance with zero weights
func (i *Conv2DLayer) Lay() layer.Instance {
	var o Conv2D
	o.height = i.height
	o.width = i.width
	o.channels = i.channels
	o.filters = i.filters
	o.kernel = i.kernel
	o.stride = i.stride
	o.pad = i.pad
	o.outH = kernels.ConvOut(i.height, i.kernel, i.stride, i.pad)
	o.outW = kernels.ConvOut(i.width, i.kernel, i.stride, i.pad)
	o.w = make([]float32, i.kernel*i.kernel*i.channels*i.filters)
	o.b = make([]float32, i.filters)
	o.workers = kernels.Workers()
	return &o
}

// InSize reports the per-sample input length.
func (c *Conv2D) InSize() int { return c.height * c.width * c.channels }

// OutSize reports the per-sample output length.
func (c *Conv2D) OutSize() int { return c.outH * c.outW * c.filters }

// OutShape reports the spatial output form (height, width, filters).
func (c *Conv2D) OutShape() (h, w, f int) { return c.outH, c.outW, c.filters }

// Forward convolves every image of the batch with the filter bank. Each image
// is gathered into an im2col patch matrix and multiplied against the HWIO
// weight matrix, so the batch parallelism stays at the image level.
func (c *Conv2D) Forward(x []float32, batch int, train bool) []float32 {
	in, out := c.InSize(), c.OutSize()
	patchCols := c.kernel * c.kernel * c.channels
	y := make([]float32, batch*out)
	parallel.ForEach(batch, c.workers, func(i int) {
		patch := make([]float32, c.outH*c.outW*patchCols)
		kernels.Im2col(x[i*in:(i+1)*in], c.height, c.width, c.channels, c.kernel, c.kernel, c.stride, c.pad, patch)
		yi := y[i*out : (i+1)*out]
		kernels.MatMul(yi, patch, c.w, c.outH*c.outW, patchCols, c.filters, 1)
		kernels.AddBias(yi, c.b, c.outH*c.outW, c.filters)
	})
	return y
}

// Params returns the HWIO filter weights and per-filter bias. Both are
// frozen, so the gradients are nil.
func (c *Conv2D) Params() []layer.Param {
	return []layer.Param{
		{Name: "weights", Shape: []int{c.kernel, c.kernel, c.channels, c.filters}, Value: c.w},
		{Name: "bias", Shape: []int{c.filters}, Value: c.b},
	}
}
