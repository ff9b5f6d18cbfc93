// Package learning implements the gradient training stage of the classifier:
// minibatch cross-entropy descent over a feedforward head, configured
// through a HyperParameters struct filled in field by field.
package learning

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/net/feedforward"
)

// Training fits the network to the training set and returns the per-epoch
// history. Weights are initialized per WeightInit, the set is walked in
// minibatches of BatchSize and, when Shuffle is set, reshuffled in place
// before every pass. After every epoch the validation set is scored with
// the layers in evaluation mode.
func (h *HyperParameters) Training(net *feedforward.FeedforwardNetwork, train, val *datasets.FeatureSet) (*History, error) {
	h.fill()

	params := net.TrainableParams()
	if len(params) == 0 {
		return nil, errors.New("learning: network has no trainable parameters")
	}
	classes := net.OutSize()
	if err := checkSet(net, train, "training"); err != nil {
		return nil, err
	}
	if err := checkSet(net, val, "validation"); err != nil {
		return nil, err
	}
	opt, err := h.optimizer()
	if err != nil {
		return nil, err
	}
	if err := h.initialize(params); err != nil {
		return nil, err
	}

	n := train.Len()
	in := net.InSize()
	if h.l != nil {
		h.l.Infow("training head",
			"samples", n, "validation", val.Len(), "classes", classes,
			"epochs", h.Epochs, "batch", h.BatchSize,
			"optimizer", h.Optimizer, "rate", h.LearningRate)
	}

	rnd := rand.New(rand.NewSource(h.Seed))

	hist := new(History)
	for epoch := 1; epoch <= h.Epochs; epoch++ {
		if h.Shuffle {
			train.Shuffle(rnd.Int63())
		}
		data := train.Raw()
		var lossSum float64
		var correct int
		for start := 0; start < n; start += h.BatchSize {
			end := start + h.BatchSize
			if end > n {
				end = n
			}
			b := end - start

			probs, err := net.Forward(data[start*in:end*in], b, true)
			if err != nil {
				return nil, err
			}
			loss, err := CrossEntropy(probs, train.Y[start:end], classes)
			if err != nil {
				return nil, err
			}
			lossSum += loss * float64(b)
			correct += countCorrect(probs, train.Y[start:end], classes)

			grad, err := CrossEntropyGrad(probs, train.Y[start:end], classes)
			if err != nil {
				return nil, err
			}
			if _, err := net.Backward(grad); err != nil {
				return nil, err
			}
			opt.Step(params)
		}

		trainLoss := lossSum / float64(n)
		trainAcc := float64(correct) / float64(n)
		valLoss, valAcc, err := Evaluate(net, val, h.BatchSize)
		if err != nil {
			return nil, err
		}
		hist.Append(trainLoss, trainAcc, valLoss, valAcc)
		if h.l != nil {
			h.l.Infow("epoch",
				"epoch", epoch, "loss", trainLoss, "accuracy", trainAcc,
				"val_loss", valLoss, "val_accuracy", valAcc)
		}
		if h.AfterEpoch != nil {
			if err := h.AfterEpoch(epoch, valAcc); err != nil {
				return nil, err
			}
		}
	}
	return hist, nil
}

// Evaluate runs the network over the set in evaluation mode and returns the
// mean cross-entropy loss and the fraction of correctly classified samples.
func Evaluate(net *feedforward.FeedforwardNetwork, set *datasets.FeatureSet, batchSize int) (loss, acc float64, err error) {
	if err := checkSet(net, set, "evaluation"); err != nil {
		return 0, 0, err
	}
	if batchSize <= 0 {
		batchSize = 128
	}
	classes := net.OutSize()
	n := set.Len()
	in := net.InSize()
	var lossSum float64
	var correct int
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		b := end - start
		probs, err := net.Forward(set.Raw()[start*in:end*in], b, false)
		if err != nil {
			return 0, 0, err
		}
		batchLoss, err := CrossEntropy(probs, set.Y[start:end], classes)
		if err != nil {
			return 0, 0, err
		}
		lossSum += batchLoss * float64(b)
		correct += countCorrect(probs, set.Y[start:end], classes)
	}
	return lossSum / float64(n), float64(correct) / float64(n), nil
}

func checkSet(net *feedforward.FeedforwardNetwork, set *datasets.FeatureSet, name string) error {
	if set == nil || set.Len() == 0 {
		return errors.Errorf("learning: empty %s set", name)
	}
	if got, want := set.SampleSize(), net.InSize(); got != want {
		return errors.Errorf("learning: %s samples have %d values, network wants %d", name, got, want)
	}
	classes := net.OutSize()
	for i, label := range set.Y {
		if label < 0 || label >= classes {
			return errors.Errorf("learning: %s label %d at row %d outside [0,%d)", name, label, i, classes)
		}
	}
	return nil
}
