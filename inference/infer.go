// Package inference implements the serving stage of the classifier: a frozen
// convolutional base, a trained dense head and the metadata that ties them
// together, with prediction over raw images, single feature vectors and
// whole feature sets.
package inference

import (
	"image"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/metrics"
	"github.com/fashionet/classifier/net/feedforward"
	"github.com/fashionet/classifier/preprocess"
)

// Classifier is a complete model ready for prediction.
type Classifier struct {
	base *convbase.Base
	head *feedforward.FeedforwardNetwork
	meta Metadata
}

// Prediction is one classification outcome with per-class probabilities.
type Prediction struct {
	Class       string             `json:"class"`
	Confidence  float64            `json:"confidence"`
	Predictions map[string]float64 `json:"predictions"`
}

// New ties a base and a trained head into a servable model. The head must
// consume exactly what the base produces and emit one score per class.
func New(base *convbase.Base, head *feedforward.FeedforwardNetwork, classes []string) (*Classifier, error) {
	if base == nil || head == nil {
		return nil, errors.New("inference: nil base or head")
	}
	if len(classes) == 0 {
		return nil, errors.New("inference: no class names")
	}
	if head.InSize() != base.OutSize() {
		return nil, errors.Errorf("inference: head wants %d features, base produces %d", head.InSize(), base.OutSize())
	}
	if head.OutSize() != len(classes) {
		return nil, errors.Errorf("inference: head produces %d scores for %d classes", head.OutSize(), len(classes))
	}
	h, w, c := base.OutShape()
	hidden := 0
	if head.Len() > 0 {
		hidden = head.Instance(0).OutSize()
	}
	meta := Metadata{
		Base:          base.Name(),
		ImageSize:     base.Config().InputSize,
		Channels:      base.Config().Channels,
		FeatureShape:  []int{h, w, c},
		Hidden:        hidden,
		Classes:       append([]string(nil), classes...),
		Normalization: UnitNormalization,
	}
	return &Classifier{base: base, head: head, meta: meta}, nil
}

// Meta returns the model metadata.
func (c *Classifier) Meta() Metadata { return c.meta }

// Classes returns the class names in label order.
func (c *Classifier) Classes() []string { return c.meta.Classes }

// Predict classifies one image of any size or color model. The image passes
// through the same preprocessing as training inputs, then through the base
// and the head.
func (c *Classifier) Predict(img image.Image) (*Prediction, error) {
	if c.base == nil {
		return nil, errors.New("inference: model loaded without a base")
	}
	x, err := preprocess.FromImage(img, c.meta.ImageSize)
	if err != nil {
		return nil, err
	}
	features, err := c.base.Forward(x, 1)
	if err != nil {
		return nil, errors.Wrap(err, "extract features")
	}
	return c.PredictFeatures(features)
}

// PredictFeatures classifies one extracted feature vector.
func (c *Classifier) PredictFeatures(features []float32) (*Prediction, error) {
	scores, err := c.head.Forward(features, 1, false)
	if err != nil {
		return nil, errors.Wrap(err, "classify features")
	}
	probs := make([]float64, len(scores))
	for i, v := range scores {
		probs[i] = float64(v)
	}
	probs = metrics.NormalizeScores(probs)

	best := 0
	out := &Prediction{Predictions: make(map[string]float64, len(probs))}
	for i, p := range probs {
		out.Predictions[c.meta.Classes[i]] = p
		if p > probs[best] {
			best = i
		}
	}
	out.Class = c.meta.Classes[best]
	out.Confidence = probs[best]
	return out, nil
}

// PredictSet classifies every sample of an extracted feature set in batches
// and returns the predicted labels.
func (c *Classifier) PredictSet(set *datasets.FeatureSet, batchSize int) ([]int, error) {
	if set == nil || set.Len() == 0 {
		return nil, errors.New("inference: empty feature set")
	}
	in := c.head.InSize()
	if set.SampleSize() != in {
		return nil, errors.Errorf("inference: samples of %d values, head wants %d", set.SampleSize(), in)
	}
	if batchSize <= 0 {
		batchSize = set.Len()
	}
	classes := c.head.OutSize()
	data := set.Raw()
	labels := make([]int, 0, set.Len())
	for start := 0; start < set.Len(); start += batchSize {
		end := min(start+batchSize, set.Len())
		scores, err := c.head.Forward(data[start*in:end*in], end-start, false)
		if err != nil {
			return nil, errors.Wrapf(err, "classify batch at %d", start)
		}
		batch, err := metrics.Labels(scores, classes)
		if err != nil {
			return nil, err
		}
		labels = append(labels, batch...)
	}
	return labels, nil
}
