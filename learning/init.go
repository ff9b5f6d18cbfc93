package learning

import (
	"math"
	randv2 "math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fashionet/classifier/layer"
)

// InitGlorotUniform fills a weight matrix with samples from
// U(-l, l), l = sqrt(6/(fanIn+fanOut)). The parameter shape must be
// (fanIn, fanOut).
func InitGlorotUniform(p layer.Param, src randv2.Source) error {
	fanIn, fanOut, err := fans(p)
	if err != nil {
		return err
	}
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	for i := range p.Value {
		p.Value[i] = float32(dist.Rand())
	}
	return nil
}

// InitHeNormal fills a weight matrix with samples from
// N(0, sqrt(2/fanIn)), the usual choice in front of relu activations.
func InitHeNormal(p layer.Param, src randv2.Source) error {
	fanIn, _, err := fans(p)
	if err != nil {
		return err
	}
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(fanIn)), Src: src}
	for i := range p.Value {
		p.Value[i] = float32(dist.Rand())
	}
	return nil
}

func fans(p layer.Param) (fanIn, fanOut int, err error) {
	if len(p.Shape) != 2 {
		return 0, 0, errors.Errorf("init: parameter %q has shape %v, want a matrix", p.Name, p.Shape)
	}
	return p.Shape[0], p.Shape[1], nil
}

// initialize applies the configured scheme to every trainable weight
// matrix. Biases and resumed weights are left as they are.
func (h *HyperParameters) initialize(params []layer.Param) error {
	if h.WeightInit == NoInit {
		return nil
	}
	src := randv2.NewPCG(uint64(h.Seed), uint64(h.Seed)+1)
	for _, p := range params {
		if len(p.Shape) != 2 {
			continue
		}
		var err error
		switch h.WeightInit {
		case GlorotUniform:
			err = InitGlorotUniform(p, src)
		case HeNormal:
			err = InitHeNormal(p, src)
		default:
			err = errors.Errorf("learning: unknown weight init %q", h.WeightInit)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
