// Package relu implements the rectified linear activation layer
package relu

import (
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

type ReLULayer struct {
	size int
}

type ReLU struct {
	size int
	y    []float32
}

// MustNew creates a new relu layer with size
func MustNew(size int) *ReLULayer {
	o, err := New(size)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new relu layer with size
func New(size int) (o *ReLULayer, err error) {
	if size <= 0 {
		return nil, errors.Errorf("relu: non-positive size %d", size)
	}
	o = new(ReLULayer)
	o.size = size
	return
}

// Lay turns the relu layer into an instance
func (i *ReLULayer) Lay() layer.Instance {
	o := new(ReLU)
	o.size = i.size
	return o
}

// InSize reports the per-sample input length.
func (r *ReLU) InSize() int { return r.size }

// OutSize reports the per-sample output length.
func (r *ReLU) OutSize() int { return r.size }

// Forward computes y = max(0, x). The activations are retained for Backward.
func (r *ReLU) Forward(x []float32, batch int, train bool) []float32 {
	y := make([]float32, len(x))
	for i, v := range x {
		if v > 0 {
			y[i] = v
		}
	}
	r.y = y
	return y
}

// Backward zeroes the gradient wherever the activation was clipped.
func (r *ReLU) Backward(grad []float32) []float32 {
	dx := make([]float32, len(grad))
	for i, g := range grad {
		if r.y[i] > 0 {
			dx[i] = g
		}
	}
	return dx
}
