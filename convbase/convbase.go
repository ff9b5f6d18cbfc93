// Package convbase builds the frozen convolutional base used for feature
// extraction: a VGG16-style stack of same-padding convolutions with relu
// activations and max pooling, assembled from a config so tests can lay
// tiny bases the same way.
package convbase

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/kernels"
	"github.com/fashionet/classifier/layer/conv2d"
	"github.com/fashionet/classifier/layer/flatten"
	"github.com/fashionet/classifier/layer/maxpool2d"
	"github.com/fashionet/classifier/layer/relu"
	"github.com/fashionet/classifier/net/feedforward"
)

// Layer kinds accepted in a Config.
const (
	Conv = "conv"
	Pool = "pool"
)

// LayerSpec describes one layer of the base.
type LayerSpec struct {
	Name    string
	Kind    string
	Filters int // Conv only
}

// Config describes a convolutional base.
type Config struct {
	Name      string
	InputSize int
	Channels  int
	Kernel    int
	Pool      int
	Layers    []LayerSpec
}

// VGG16 returns the VGG16 feature-extractor architecture without its
// classifier top: five blocks of 3x3 same-padding convolutions, each block
// closed by 2x2 max pooling. On 150x150x3 inputs the output is 4x4x512.
func VGG16() Config {
	blocks := []struct {
		convs   int
		filters int
	}{
		{2, 64},
		{2, 128},
		{3, 256},
		{3, 512},
		{3, 512},
	}
	cfg := Config{
		Name:      "vgg16",
		InputSize: 150,
		Channels:  3,
		Kernel:    3,
		Pool:      2,
	}
	for b, block := range blocks {
		for c := 0; c < block.convs; c++ {
			cfg.Layers = append(cfg.Layers, LayerSpec{
				Name:    fmt.Sprintf("block%d_conv%d", b+1, c+1),
				Kind:    Conv,
				Filters: block.filters,
			})
		}
		cfg.Layers = append(cfg.Layers, LayerSpec{
			Name: fmt.Sprintf("block%d_pool", b+1),
			Kind: Pool,
		})
	}
	return cfg
}

// Base is a frozen feature extractor laid from a Config.
type Base struct {
	cfg              Config
	net              *feedforward.FeedforwardNetwork
	outH, outW, outC int
}

// New lays the base described by cfg with zero weights. Weights come from
// Load or InitRandom.
func New(cfg Config) (*Base, error) {
	if cfg.InputSize <= 0 || cfg.Channels <= 0 {
		return nil, errors.Errorf("convbase: bad input geometry %dx%d", cfg.InputSize, cfg.Channels)
	}
	if cfg.Kernel <= 0 || cfg.Kernel%2 == 0 {
		return nil, errors.Errorf("convbase: kernel %d must be odd and positive", cfg.Kernel)
	}
	if cfg.Pool <= 0 {
		return nil, errors.Errorf("convbase: non-positive pool %d", cfg.Pool)
	}
	if len(cfg.Layers) == 0 {
		return nil, errors.New("convbase: no layers")
	}

	b := &Base{cfg: cfg, net: &feedforward.FeedforwardNetwork{}}
	h, w, c := cfg.InputSize, cfg.InputSize, cfg.Channels
	for _, spec := range cfg.Layers {
		switch spec.Kind {
		case Conv:
			if spec.Filters <= 0 {
				return nil, errors.Errorf("convbase: layer %q needs a filter count", spec.Name)
			}
			conv, err := conv2d.New(h, w, c, spec.Filters, cfg.Kernel, 1, kernels.SamePad(cfg.Kernel))
			if err != nil {
				return nil, errors.Wrapf(err, "layer %q", spec.Name)
			}
			if err := b.net.NewLayer(spec.Name, conv); err != nil {
				return nil, err
			}
			c = spec.Filters
			act, err := relu.New(h * w * c)
			if err != nil {
				return nil, errors.Wrapf(err, "layer %q", spec.Name)
			}
			if err := b.net.NewLayer(spec.Name+"_relu", act); err != nil {
				return nil, err
			}
		case Pool:
			pool, err := maxpool2d.New(h, w, c, cfg.Pool, cfg.Pool)
			if err != nil {
				return nil, errors.Wrapf(err, "layer %q", spec.Name)
			}
			if err := b.net.NewLayer(spec.Name, pool); err != nil {
				return nil, err
			}
			h = kernels.ConvOut(h, cfg.Pool, cfg.Pool, 0)
			w = kernels.ConvOut(w, cfg.Pool, cfg.Pool, 0)
		default:
			return nil, errors.Errorf("convbase: layer %q has unknown kind %q", spec.Name, spec.Kind)
		}
	}
	flat, err := flatten.New(h, w, c)
	if err != nil {
		return nil, err
	}
	if err := b.net.NewLayer("flatten", flat); err != nil {
		return nil, err
	}
	b.outH, b.outW, b.outC = h, w, c
	return b, nil
}

// MustNew is New which panics on a bad config.
func MustNew(cfg Config) *Base {
	b, err := New(cfg)
	if err != nil {
		panic(err.Error())
	}
	return b
}

// Config returns the config the base was laid from.
func (b *Base) Config() Config { return b.cfg }

// Name returns the architecture name.
func (b *Base) Name() string { return b.cfg.Name }

// InSize reports the per-sample input length.
func (b *Base) InSize() int { return b.net.InSize() }

// OutSize reports the per-sample output length, flattened.
func (b *Base) OutSize() int { return b.net.OutSize() }

// OutShape reports the spatial output form before flattening.
func (b *Base) OutShape() (h, w, c int) { return b.outH, b.outW, b.outC }

// Forward pushes a batch through the frozen stack.
func (b *Base) Forward(x []float32, batch int) ([]float32, error) {
	return b.net.Forward(x, batch, false)
}

// InitRandom fills the filter weights with seeded values scaled to the
// filter fan-in, leaving biases at zero. Tests lay tiny nonzero bases with
// it; real runs load pretrained weights with Load.
func (b *Base) InitRandom(seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	for _, p := range b.net.Params() {
		if len(p.Shape) < 2 {
			continue
		}
		fanIn := 1
		for _, d := range p.Shape[:len(p.Shape)-1] {
			fanIn *= d
		}
		scale := math.Sqrt(2 / float64(fanIn))
		for i := range p.Value {
			p.Value[i] = float32(rnd.NormFloat64() * scale)
		}
	}
}

// Load reads the base weights from a compressed weights file.
func (b *Base) Load(path string) error {
	return errors.Wrapf(b.net.ReadCompressedWeightsFromFile(path), "load %s base", b.cfg.Name)
}

// Save writes the base weights to a compressed weights file.
func (b *Base) Save(path string) error {
	return errors.Wrapf(b.net.WriteCompressedWeightsToFile(path), "save %s base", b.cfg.Name)
}
