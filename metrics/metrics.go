// Package metrics computes the post-training evaluation summaries: accuracy,
// the confusion matrix, a per-class classification report and the score
// normalization turning raw model outputs into confidences.
package metrics

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Argmax returns the index of the largest score. The slice must not be
// empty.
func Argmax(scores []float32) int {
	best := 0
	for i, v := range scores[1:] {
		if v > scores[best] {
			best = i + 1
		}
	}
	return best
}

// Labels turns a row-major batch of per-class scores into predicted label
// indices.
func Labels(scores []float32, classes int) ([]int, error) {
	if classes <= 0 {
		return nil, errors.Errorf("metrics: non-positive class count %d", classes)
	}
	if len(scores) == 0 || len(scores)%classes != 0 {
		return nil, errors.Errorf("metrics: %d scores do not split into rows of %d", len(scores), classes)
	}
	n := len(scores) / classes
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = Argmax(scores[i*classes : (i+1)*classes])
	}
	return out, nil
}

// Accuracy returns the fraction of predictions matching the truth.
func Accuracy(pred, truth []int) (float64, error) {
	if len(pred) == 0 || len(pred) != len(truth) {
		return 0, errors.Errorf("metrics: %d predictions for %d labels", len(pred), len(truth))
	}
	correct := 0
	for i, p := range pred {
		if p == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred)), nil
}

// ConfusionMatrix counts predictions per true class: m[t][p] is the number
// of class-t samples predicted as class p, so every row sums to the support
// of its class.
func ConfusionMatrix(pred, truth []int, classes int) ([][]int, error) {
	if classes <= 0 {
		return nil, errors.Errorf("metrics: non-positive class count %d", classes)
	}
	if len(pred) == 0 || len(pred) != len(truth) {
		return nil, errors.Errorf("metrics: %d predictions for %d labels", len(pred), len(truth))
	}
	m := make([][]int, classes)
	for i := range m {
		m[i] = make([]int, classes)
	}
	for i, p := range pred {
		t := truth[i]
		if t < 0 || t >= classes || p < 0 || p >= classes {
			return nil, errors.Errorf("metrics: labels (%d, %d) at row %d outside [0,%d)", t, p, i, classes)
		}
		m[t][p]++
	}
	return m, nil
}

// NormalizeScores turns raw classifier outputs into confidences in [0, 1]:
// multi-class logits get a softmax, a single binary score outside [-1, 1]
// gets a sigmoid, and values already forming probabilities pass through.
func NormalizeScores(scores []float64) []float64 {
	if len(scores) > 1 {
		for _, s := range scores {
			if s < 0 || s > 1 {
				return softmax(scores)
			}
		}
		return scores
	}
	if len(scores) == 1 && (scores[0] < -1 || scores[0] > 1) {
		out, err := stats.Sigmoid(scores)
		if err != nil {
			return scores
		}
		return out
	}
	return scores
}

// softmax with the usual max shift for numerical stability.
func softmax(in []float64) []float64 {
	shift := floats.Max(in)
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = math.Exp(v - shift)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
