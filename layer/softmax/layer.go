// Package softmax implements the softmax activation layer closing a
// classification network.
package softmax

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

type SoftmaxLayer struct {
	size int
}

type Softmax struct {
	size int
}

// MustNew creates a new softmax layer with size
func MustNew(size int) *SoftmaxLayer {
	o, err := New(size)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new softmax layer with size
func New(size int) (o *SoftmaxLayer, err error) {
	if size <= 0 {
		return nil, errors.Errorf("softmax: non-positive size %d", size)
	}
	o = new(SoftmaxLayer)
	o.size = size
	return
}

// Lay turns the softmax layer into an instance
func (i *SoftmaxLayer) Lay() layer.Instance {
	o := new(Softmax)
	o.size = i.size
	return o
}

// InSize reports the per-sample input length.
func (s *Softmax) InSize() int { return s.size }

// OutSize reports the per-sample output length.
func (s *Softmax) OutSize() int { return s.size }

// Forward normalizes every row into a probability distribution, with the
// usual max subtraction for numerical stability.
func (s *Softmax) Forward(x []float32, batch int, train bool) []float32 {
	y := make([]float32, len(x))
	for i := 0; i < batch; i++ {
		row := x[i*s.size : (i+1)*s.size]
		out := y[i*s.size : (i+1)*s.size]
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(float64(v - max))
			out[j] = float32(e)
			sum += e
		}
		inv := float32(1 / sum)
		for j := range out {
			out[j] *= inv
		}
	}
	return y
}

// Backward passes the gradient through unchanged. The categorical
// cross-entropy loss differentiates against the softmax input directly
// (probabilities minus one-hot targets), so no Jacobian product is needed
// here.
func (s *Softmax) Backward(grad []float32) []float32 {
	return grad
}
