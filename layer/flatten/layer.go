// Package flatten implements the layer collapsing a spatial activation
// volume into a flat feature vector. Row-major NHWC batches are already
// contiguous, so the layer only reinterprets the shape.
package flatten

import (
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

type FlattenLayer struct {
	shape []int
}

type Flatten struct {
	size int
}

// MustNew creates a new flatten layer collapsing the per-sample shape
func MustNew(shape ...int) *FlattenLayer {
	o, err := New(shape...)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new flatten layer collapsing the per-sample shape
func New(shape ...int) (o *FlattenLayer, err error) {
	if len(shape) == 0 {
		return nil, errors.New("flatten: empty shape")
	}
	for _, d := range shape {
		if d <= 0 {
			return nil, errors.Errorf("flatten: non-positive dimension in %v", shape)
		}
	}
	o = new(FlattenLayer)
	o.shape = append([]int(nil), shape...)
	return
}

// Lay turns the flatten layer into an instance
func (i *FlattenLayer) Lay() layer.Instance {
	o := new(Flatten)
	o.size = 1
	for _, d := range i.shape {
		o.size *= d
	}
	return o
}

// InSize reports the per-sample input length.
func (f *Flatten) InSize() int { return f.size }

// OutSize reports the per-sample output length.
func (f *Flatten) OutSize() int { return f.size }

// Forward returns the batch unchanged.
func (f *Flatten) Forward(x []float32, batch int, train bool) []float32 {
	return x
}

// Backward returns the gradient unchanged.
func (f *Flatten) Backward(grad []float32) []float32 {
	return grad
}
