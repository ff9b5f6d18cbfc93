package trainer

import (
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/datasets"
)

// Pipeline drives feature extraction: it splits the labeled training images,
// pushes every part through the frozen base in batches and caches the
// results as npz archives.
type Pipeline struct {
	Base     *convbase.Base
	CacheDir string  // archive directory; empty disables caching
	Batch    int     // images per extraction batch
	Workers  int     // preprocessing parallelism
	ValRatio float64 // validation share of the training images
	Seed     int64   // split seed
	Logger   golog.Logger
}

func (p *Pipeline) fill() {
	if p.Batch == 0 {
		p.Batch = 128
	}
	if p.ValRatio == 0 {
		p.ValRatio = 0.2
	}
}

// Run splits the training images into a training and a validation part,
// extracts features for all three parts and caches each one when a cache
// directory is set.
func (p *Pipeline) Run(train, test *datasets.ImageSet) (tr, val, te *datasets.FeatureSet, err error) {
	p.fill()
	if p.Base == nil {
		return nil, nil, nil, errors.New("trainer: nil base")
	}
	if train == nil || test == nil {
		return nil, nil, nil, errors.New("trainer: nil image set")
	}

	trainImgs, valImgs, err := train.Split(p.ValRatio, p.Seed)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.Logger != nil {
		p.Logger.Infow("split samples",
			"train", trainImgs.Len(), "validation", valImgs.Len(), "test", test.Len(),
			"ratio", p.ValRatio)
	}

	parts := []struct {
		name string
		file string
		imgs *datasets.ImageSet
		out  **datasets.FeatureSet
	}{
		{"training", TrainFeaturesFile, trainImgs, &tr},
		{"validation", ValFeaturesFile, valImgs, &val},
		{"test", TestFeaturesFile, test, &te},
	}
	for _, part := range parts {
		set, err := p.Extract(part.imgs)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "extract %s features", part.name)
		}
		if p.CacheDir != "" {
			if err := os.MkdirAll(p.CacheDir, 0o755); err != nil {
				return nil, nil, nil, errors.Wrap(err, "create cache dir")
			}
			path := filepath.Join(p.CacheDir, part.file)
			if err := set.SaveNpz(path); err != nil {
				return nil, nil, nil, err
			}
			if p.Logger != nil {
				p.Logger.Infow("cached features", "path", path, "shape", set.X.Shape())
			}
		}
		*part.out = set
	}
	return tr, val, te, nil
}
