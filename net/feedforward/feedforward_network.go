// Package feedforward implements a feedforward network type
package feedforward

import (
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/layer"
)

// FeedforwardNetwork is the feedforward network: an ordered stack of laid
// layer instances, each wired to the output geometry of the one before it.
type FeedforwardNetwork struct {
	names     []string
	instances []layer.Instance
}

// Len returns the number of layers in the network.
func (f *FeedforwardNetwork) Len() int {
	return len(f.instances)
}

// Name returns the name of the n-th layer.
func (f *FeedforwardNetwork) Name(n int) string {
	return f.names[n]
}

// Instance returns the n-th laid layer.
func (f *FeedforwardNetwork) Instance(n int) layer.Instance {
	return f.instances[n]
}

// InSize reports the per-sample input length of the whole network.
func (f *FeedforwardNetwork) InSize() int {
	if len(f.instances) == 0 {
		return 0
	}
	return f.instances[0].InSize()
}

// OutSize reports the per-sample output length of the whole network.
func (f *FeedforwardNetwork) OutSize() int {
	if len(f.instances) == 0 {
		return 0
	}
	return f.instances[len(f.instances)-1].OutSize()
}

// NewLayer lays a named layer blueprint onto the end of the network. The new
// layer must consume exactly what the current last layer produces.
func (f *FeedforwardNetwork) NewLayer(name string, blueprint layer.Layer) error {
	inst := blueprint.Lay()
	if n := len(f.instances); n > 0 {
		prev := f.instances[n-1]
		if prev.OutSize() != inst.InSize() {
			return errors.Errorf("feedforward: layer %q wants %d inputs, layer %q produces %d",
				name, inst.InSize(), f.names[n-1], prev.OutSize())
		}
	}
	for _, existing := range f.names {
		if existing == name {
			return errors.Errorf("feedforward: duplicate layer name %q", name)
		}
	}
	f.names = append(f.names, name)
	f.instances = append(f.instances, inst)
	return nil
}

// MustNewLayer is NewLayer which panics on geometry mistakes.
func (f *FeedforwardNetwork) MustNewLayer(name string, blueprint layer.Layer) {
	if err := f.NewLayer(name, blueprint); err != nil {
		panic(err.Error())
	}
}

// Forward pushes a batch through every layer and returns the final
// activations. train enables stochastic layers such as dropout.
func (f *FeedforwardNetwork) Forward(x []float32, batch int, train bool) ([]float32, error) {
	if batch <= 0 {
		return nil, errors.Errorf("feedforward: non-positive batch %d", batch)
	}
	if want := batch * f.InSize(); len(x) != want {
		return nil, errors.Errorf("feedforward: input length %d, want %d", len(x), want)
	}
	for _, inst := range f.instances {
		x = inst.Forward(x, batch, train)
	}
	return x, nil
}

// Backward pushes the loss gradient back through every layer, storing
// parameter gradients along the way. Every layer must support
// backpropagation; frozen stacks such as a convolutional base do not.
func (f *FeedforwardNetwork) Backward(grad []float32) ([]float32, error) {
	for i := len(f.instances) - 1; i >= 0; i-- {
		bp, ok := f.instances[i].(layer.Backprop)
		if !ok {
			return nil, errors.Errorf("feedforward: layer %q cannot backpropagate", f.names[i])
		}
		grad = bp.Backward(grad)
	}
	return grad, nil
}

// Params returns every parameter tensor of the network, with names prefixed
// by the owning layer as "layer/param".
func (f *FeedforwardNetwork) Params() (o []layer.Param) {
	for i, inst := range f.instances {
		p, ok := inst.(layer.Parameterized)
		if !ok {
			continue
		}
		for _, param := range p.Params() {
			param.Name = f.names[i] + "/" + param.Name
			o = append(o, param)
		}
	}
	return
}

// TrainableParams returns only the parameters carrying gradient buffers.
func (f *FeedforwardNetwork) TrainableParams() (o []layer.Param) {
	for _, p := range f.Params() {
		if p.Grad != nil {
			o = append(o, p)
		}
	}
	return
}
