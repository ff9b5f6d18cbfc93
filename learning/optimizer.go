package learning

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

// Optimizer applies one update step to trainable parameters from the
// gradients stored by the latest backward pass.
type Optimizer interface {
	Step(params []layer.Param)
}

// NewSGD returns stochastic gradient descent with momentum. A momentum of
// zero gives the plain update.
func NewSGD(learningRate, momentum float64) Optimizer {
	return &sgd{
		lr:       float32(learningRate),
		momentum: float32(momentum),
		velocity: make(map[string][]float32),
	}
}

type sgd struct {
	lr       float32
	momentum float32
	velocity map[string][]float32
}

func (o *sgd) Step(params []layer.Param) {
	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		v := o.velocity[p.Name]
		if v == nil {
			v = make([]float32, len(p.Value))
			o.velocity[p.Name] = v
		}
		for i, g := range p.Grad {
			v[i] = o.momentum*v[i] - o.lr*g
			p.Value[i] += v[i]
		}
	}
}

// NewRMSProp returns the rmsprop optimizer: every parameter is scaled by
// the square root of a decaying average of its squared gradients.
func NewRMSProp(learningRate, rho, epsilon float64) Optimizer {
	return &rmsprop{
		lr:    float32(learningRate),
		rho:   float32(rho),
		eps:   float32(epsilon),
		cache: make(map[string][]float32),
	}
}

type rmsprop struct {
	lr    float32
	rho   float32
	eps   float32
	cache map[string][]float32
}

func (o *rmsprop) Step(params []layer.Param) {
	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		c := o.cache[p.Name]
		if c == nil {
			c = make([]float32, len(p.Value))
			o.cache[p.Name] = c
		}
		for i, g := range p.Grad {
			c[i] = o.rho*c[i] + (1-o.rho)*g*g
			p.Value[i] -= o.lr * g / (float32(math.Sqrt(float64(c[i]))) + o.eps)
		}
	}
}

// optimizer builds the configured optimizer.
func (h *HyperParameters) optimizer() (Optimizer, error) {
	switch h.Optimizer {
	case RMSProp:
		return NewRMSProp(h.LearningRate, h.Rho, h.Epsilon), nil
	case SGD:
		return NewSGD(h.LearningRate, h.Momentum), nil
	}
	return nil, errors.Errorf("learning: unknown optimizer %q", h.Optimizer)
}
