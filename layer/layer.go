// Package layer defines how layer blueprints become live network layers.
// A blueprint fixes the geometry; Lay() creates an instance owning its own
// buffers. Instances may additionally support backpropagation and may carry
// parameter tensors, trainable or frozen.
package layer

// Param couples one named parameter tensor with its gradient buffer.
// Frozen parameters carry a nil Grad.
type Param struct {
	Name  string
	Shape []int
	Value []float32
	Grad  []float32
}

// Size reports the number of elements of the parameter tensor.
func (p Param) Size() int {
	n := 1
	for _, d := range p.Shape {
		n *= d
	}
	return n
}

// Layer is the layer blueprint which can be used for instantiating an instance
type Layer interface {

	// Lay creates an instance
	Lay() Instance
}

// Instance is a live layer transforming row-major float32 batches.
type Instance interface {

	// InSize reports the per-sample input length.
	InSize() int

	// OutSize reports the per-sample output length.
	OutSize() int

	// Forward computes the activations for a batch of inputs of length
	// batch*InSize(). The returned slice has batch*OutSize() elements and
	// stays valid until the next Forward on this instance. train enables
	// stochastic behavior such as dropout.
	Forward(x []float32, batch int, train bool) []float32
}

// Backprop is an instance that can push loss gradients back to its input.
type Backprop interface {
	Instance

	// Backward consumes dLoss/dOutput for the most recent Forward batch,
	// stores any parameter gradients, and returns dLoss/dInput.
	Backward(grad []float32) []float32
}

// Parameterized is an instance carrying weight tensors, frozen or trainable.
type Parameterized interface {
	Params() []Param
}
