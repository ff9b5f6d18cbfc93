package learning

import "github.com/edaniels/golog"

// Optimizer names accepted by HyperParameters.Optimizer.
const (
	RMSProp = "rmsprop"
	SGD     = "sgd"
)

// Weight initialization schemes accepted by HyperParameters.WeightInit.
const (
	GlorotUniform = "glorot-uniform"
	HeNormal      = "he-normal"
	NoInit        = "none" // keep the current weights, for resumed training
)

// SetLogger sets the logger receiving the per-epoch metrics.
func (h *HyperParameters) SetLogger(logger golog.Logger) {
	h.l = logger
}

type HyperParameters struct {
	Shuffle bool  // whether to reshuffle the training set before each epoch
	Seed    int64 // seed for shuffling and weight initialization

	Epochs    int // number of passes over the training set
	BatchSize int // minibatch size

	Optimizer    string  // rmsprop or sgd
	LearningRate float64 // step size of both optimizers
	Momentum     float64 // sgd only
	Rho          float64 // rmsprop gradient moving-average decay
	Epsilon      float64 // rmsprop division guard

	WeightInit string // glorot-uniform, he-normal or none

	// AfterEpoch, when set, runs after every epoch with that epoch's
	// validation accuracy. Returning an error stops the run.
	AfterEpoch func(epoch int, valAcc float64) error

	l golog.Logger
}

// fill replaces zero values with the defaults of the feature-extraction
// recipe: 20 epochs of rmsprop at 1e-4 over batches of 128.
func (h *HyperParameters) fill() {
	if h.Epochs == 0 {
		h.Epochs = 20
	}
	if h.BatchSize == 0 {
		h.BatchSize = 128
	}
	if h.Optimizer == "" {
		h.Optimizer = RMSProp
	}
	if h.LearningRate == 0 {
		h.LearningRate = 1e-4
	}
	if h.Rho == 0 {
		h.Rho = 0.9
	}
	if h.Epsilon == 0 {
		h.Epsilon = 1e-7
	}
	if h.WeightInit == "" {
		h.WeightInit = GlorotUniform
	}
}
