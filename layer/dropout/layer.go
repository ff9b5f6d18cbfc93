// Package dropout implements inverted dropout: units are zeroed with the
// given rate during training and the survivors are scaled by 1/(1-rate),
// so evaluation needs no rescaling.
package dropout

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

type DropoutLayer struct {
	size int
	rate float64
	seed int64
}

type Dropout struct {
	size  int
	rate  float64
	scale float32
	rnd   *rand.Rand
	mask  []float32
}

// MustNew creates a new dropout layer with size, rate and seed
func MustNew(size int, rate float64, seed int64) *DropoutLayer {
	o, err := New(size, rate, seed)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new dropout layer with size, rate and seed
func New(size int, rate float64, seed int64) (o *DropoutLayer, err error) {
	if size <= 0 {
		return nil, errors.Errorf("dropout: non-positive size %d", size)
	}
	if rate < 0 || rate >= 1 {
		return nil, errors.Errorf("dropout: rate %v outside [0,1)", rate)
	}
	o = new(DropoutLayer)
	o.size = size
	o.rate = rate
	o.seed = seed
	return
}

// Lay turns the dropout layer into an instance with its own random stream
func (i *DropoutLayer) Lay() layer.Instance {
	o := new(Dropout)
	o.size = i.size
	o.rate = i.rate
	o.scale = float32(1 / (1 - i.rate))
	o.rnd = rand.New(rand.NewSource(i.seed))
	return o
}

// InSize reports the per-sample input length.
func (d *Dropout) InSize() int { return d.size }

// OutSize reports the per-sample output length.
func (d *Dropout) OutSize() int { return d.size }

// Forward samples a fresh mask per training batch. Outside of training the
// input passes through unchanged.
func (d *Dropout) Forward(x []float32, batch int, train bool) []float32 {
	if !train || d.rate == 0 {
		d.mask = nil
		return x
	}
	d.mask = make([]float32, batch*d.size)
	y := make([]float32, batch*d.size)
	for i := range x {
		if d.rnd.Float64() >= d.rate {
			d.mask[i] = d.scale
			y[i] = x[i] * d.scale
		}
	}
	return y
}

// Backward applies the forward mask to the gradient.
func (d *Dropout) Backward(grad []float32) []float32 {
	if d.mask == nil {
		return grad
	}
	dx := make([]float32, len(grad))
	for i, g := range grad {
		dx[i] = g * d.mask[i]
	}
	return dx
}
