package inference

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/layer/dense"
	"github.com/fashionet/classifier/layer/dropout"
	"github.com/fashionet/classifier/layer/relu"
	"github.com/fashionet/classifier/layer/softmax"
	"github.com/fashionet/classifier/net/feedforward"
)

// Files of a saved model directory.
const (
	WeightsFile  = "head.weights"
	MetadataFile = "metadata.json"
)

// UnitNormalization marks inputs scaled from the 0..255 byte range to [0,1].
const UnitNormalization = "unit"

// Metadata describes a saved model well enough to rebuild and serve it.
type Metadata struct {
	Base          string   `json:"base"`
	ImageSize     int      `json:"image_size"`
	Channels      int      `json:"channels"`
	FeatureShape  []int    `json:"feature_shape"`
	Hidden        int      `json:"hidden"`
	Classes       []string `json:"classes"`
	Normalization string   `json:"normalization"`
}

// Features returns the flat per-sample input length of the head.
func (m Metadata) Features() int {
	if len(m.FeatureShape) == 0 {
		return 0
	}
	n := 1
	for _, d := range m.FeatureShape {
		n *= d
	}
	return n
}

// NewHead builds the trainable classifier head: a hidden dense layer with
// relu and dropout, then a dense projection to the class count closed by
// softmax probabilities. The seed drives the dropout masks.
func NewHead(features, hidden, classes int, rate float64, seed int64) (*feedforward.FeedforwardNetwork, error) {
	if features <= 0 || hidden <= 0 || classes <= 0 {
		return nil, errors.Errorf("inference: bad head geometry %d -> %d -> %d", features, hidden, classes)
	}
	fc1, err := dense.New(features, hidden)
	if err != nil {
		return nil, err
	}
	act, err := relu.New(hidden)
	if err != nil {
		return nil, err
	}
	drop, err := dropout.New(hidden, rate, seed)
	if err != nil {
		return nil, err
	}
	fc2, err := dense.New(hidden, classes)
	if err != nil {
		return nil, err
	}
	probs, err := softmax.New(classes)
	if err != nil {
		return nil, err
	}

	net := &feedforward.FeedforwardNetwork{}
	net.MustNewLayer("fc1", fc1)
	net.MustNewLayer("fc1_relu", act)
	net.MustNewLayer("drop", drop)
	net.MustNewLayer("fc2", fc2)
	net.MustNewLayer("probs", probs)
	return net, nil
}

// Save writes the head weights and the metadata into dir, creating it if
// needed.
func (c *Classifier) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create model dir %s", dir)
	}
	if err := c.head.WriteCompressedWeightsToFile(filepath.Join(dir, WeightsFile)); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(c.meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode model metadata")
	}
	buf = append(buf, '\n')
	return errors.Wrap(os.WriteFile(filepath.Join(dir, MetadataFile), buf, 0o644), "write model metadata")
}

// Load reads a saved model from dir and attaches the base to it. A nil base
// is allowed; the model then classifies extracted features only.
func Load(dir string, base *convbase.Base) (*Classifier, error) {
	buf, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, errors.Wrap(err, "read model metadata")
	}
	var meta Metadata
	if err := json.Unmarshal(buf, &meta); err != nil {
		return nil, errors.Wrap(err, "parse model metadata")
	}
	features := meta.Features()
	if features <= 0 {
		return nil, errors.Errorf("inference: bad feature shape %v", meta.FeatureShape)
	}
	if len(meta.Classes) == 0 {
		return nil, errors.New("inference: metadata names no classes")
	}
	if base != nil {
		if base.Name() != meta.Base {
			return nil, errors.Errorf("inference: model wants base %q, got %q", meta.Base, base.Name())
		}
		if base.OutSize() != features {
			return nil, errors.Errorf("inference: base produces %d features, model wants %d", base.OutSize(), features)
		}
	}
	head, err := NewHead(features, meta.Hidden, len(meta.Classes), 0, 0)
	if err != nil {
		return nil, err
	}
	if err := head.ReadCompressedWeightsFromFile(filepath.Join(dir, WeightsFile)); err != nil {
		return nil, err
	}
	return &Classifier{base: base, head: head, meta: meta}, nil
}
