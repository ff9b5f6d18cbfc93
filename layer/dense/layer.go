// Package dense implements a fully connected layer
package dense

import (
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/kernels"
	"github.com/fashionet/classifier/layer"
)

type DenseLayer struct {
	in  int
	out int
}

type Dense struct {
	in      int
	out     int
	w       []float32
	b       []float32
	gw      []float32
	gb      []float32
	x       []float32
	batch   int
	workers int
}

// MustNew creates a new dense layer mapping in inputs to out outputs
func MustNew(in, out int) *DenseLayer {
	o, err := New(in, out)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new dense layer mapping in inputs to out outputs
func New(in, out int) (o *DenseLayer, err error) {
	if in <= 0 || out <= 0 {
		return nil, errors.Errorf("dense: non-positive geometry %dx%d", in, out)
	}
	o = new(DenseLayer)
	o.in = in
	o.out = out
	return
}

// Lay turns the dense layer into an instance
func (i *DenseLayer) Lay() layer.Instance {
	o := new(Dense)
	o.in = i.in
	o.out = i.out
	o.w = make([]float32, i.in*i.out)
	o.b = make([]float32, i.out)
	o.gw = make([]float32, i.in*i.out)
	o.gb = make([]float32, i.out)
	o.workers = kernels.Workers()
	return o
}

// InSize reports the per-sample input length.
func (d *Dense) InSize() int { return d.in }

// OutSize reports the per-sample output length.
func (d *Dense) OutSize() int { return d.out }

// Forward computes y = x·W + b. The input batch is retained for Backward.
func (d *Dense) Forward(x []float32, batch int, train bool) []float32 {
	d.x = x
	d.batch = batch
	y := make([]float32, batch*d.out)
	kernels.MatMul(y, x, d.w, batch, d.in, d.out, d.workers)
	kernels.AddBias(y, d.b, batch, d.out)
	return y
}

// Backward stores dW = xᵀ·grad and db = column sums of grad, and returns
// dx = grad·Wᵀ for the layer below.
func (d *Dense) Backward(grad []float32) []float32 {
	kernels.MatMulAT(d.gw, d.x, grad, d.batch, d.in, d.out, d.workers)
	kernels.Fill(d.gb, 0)
	for i := 0; i < d.batch; i++ {
		kernels.Axpy(1, grad[i*d.out:(i+1)*d.out], d.gb)
	}
	dx := make([]float32, d.batch*d.in)
	kernels.MatMulBT(dx, grad, d.w, d.batch, d.out, d.in, d.workers)
	return dx
}

// Params returns the weight matrix and bias with their gradient buffers.
func (d *Dense) Params() []layer.Param {
	return []layer.Param{
		{Name: "weights", Shape: []int{d.in, d.out}, Value: d.w, Grad: d.gw},
		{Name: "bias", Shape: []int{d.out}, Value: d.b, Grad: d.gb},
	}
}
