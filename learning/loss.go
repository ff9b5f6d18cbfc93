package learning

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/datasets"
)

// probFloor keeps the logarithm finite when a probability collapses to zero.
const probFloor = 1e-12

// CrossEntropy returns the mean categorical cross-entropy of the softmax
// probabilities against the integer labels. probs is row-major with one row
// of classes values per label.
func CrossEntropy(probs []float32, labels []int, classes int) (float64, error) {
	if classes <= 0 {
		return 0, errors.Errorf("crossentropy: non-positive class count %d", classes)
	}
	if len(probs) != len(labels)*classes {
		return 0, errors.Errorf("crossentropy: %d probabilities for %d labels of %d classes",
			len(probs), len(labels), classes)
	}
	var sum float64
	for i, label := range labels {
		if label < 0 || label >= classes {
			return 0, errors.Errorf("crossentropy: label %d at row %d outside [0,%d)", label, i, classes)
		}
		p := float64(probs[i*classes+label])
		if p < probFloor {
			p = probFloor
		}
		sum -= math.Log(p)
	}
	return sum / float64(len(labels)), nil
}

// CrossEntropyGrad returns the gradient of the mean cross-entropy with
// respect to the softmax inputs: (probabilities - one-hot targets) / batch.
// The softmax layer passes this through unchanged, so the fused form saves
// the full Jacobian product.
func CrossEntropyGrad(probs []float32, labels []int, classes int) ([]float32, error) {
	if len(probs) != len(labels)*classes {
		return nil, errors.Errorf("crossentropy: %d probabilities for %d labels of %d classes",
			len(probs), len(labels), classes)
	}
	targets, err := datasets.OneHot(labels, classes)
	if err != nil {
		return nil, err
	}
	onehot := targets.Data().([]float32)
	grad := make([]float32, len(probs))
	inv := float32(1) / float32(len(labels))
	for i := range grad {
		grad[i] = (probs[i] - onehot[i]) * inv
	}
	return grad, nil
}

// countCorrect reports how many rows of probs put their largest value at
// the label index.
func countCorrect(probs []float32, labels []int, classes int) int {
	correct := 0
	for i, label := range labels {
		row := probs[i*classes : (i+1)*classes]
		best := 0
		for j, v := range row[1:] {
			if v > row[best] {
				best = j + 1
			}
		}
		if best == label {
			correct++
		}
	}
	return correct
}
