package trainer

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/net/feedforward"
)

// Feature archives written into the cache directory.
const (
	TrainFeaturesFile = "features_train.npz"
	ValFeaturesFile   = "features_val.npz"
	TestFeaturesFile  = "features_test.npz"
)

// Features returns the three feature sets, from the npz cache when all
// three archives are present, otherwise by loading the images through the
// given loader and running the extraction pipeline on them.
func (p *Pipeline) Features(load func() (train, test *datasets.ImageSet, err error)) (tr, val, te *datasets.FeatureSet, err error) {
	tr, val, te, ok, err := p.LoadCached()
	if err != nil {
		return nil, nil, nil, err
	}
	if ok {
		return tr, val, te, nil
	}
	train, test, err := load()
	if err != nil {
		return nil, nil, nil, err
	}
	return p.Run(train, test)
}

// LoadCached loads the three cached archives. ok is false when caching is
// off or any archive is missing; a cached shape that no longer matches the
// base output is an error.
func (p *Pipeline) LoadCached() (tr, val, te *datasets.FeatureSet, ok bool, err error) {
	if p.CacheDir == "" {
		return nil, nil, nil, false, nil
	}
	outs := []**datasets.FeatureSet{&tr, &val, &te}
	for i, name := range []string{TrainFeaturesFile, ValFeaturesFile, TestFeaturesFile} {
		path := filepath.Join(p.CacheDir, name)
		if _, serr := os.Stat(path); serr != nil {
			return nil, nil, nil, false, nil
		}
		set, lerr := datasets.LoadFeatureSetNpz(path)
		if lerr != nil {
			return nil, nil, nil, false, lerr
		}
		if cerr := p.checkShape(set); cerr != nil {
			return nil, nil, nil, false, errors.Wrapf(cerr, "cached %s", name)
		}
		*outs[i] = set
		if p.Logger != nil {
			p.Logger.Infow("loaded cached features", "path", path, "shape", set.X.Shape())
		}
	}
	return tr, val, te, true, nil
}

func (p *Pipeline) checkShape(set *datasets.FeatureSet) error {
	if p.Base == nil {
		return nil
	}
	h, w, c := p.Base.OutShape()
	shape := set.X.Shape()
	if len(shape) != 4 || shape[1] != h || shape[2] != w || shape[3] != c {
		return errors.Errorf("feature shape %v does not match the %s base output %dx%dx%d",
			shape, p.Base.Name(), h, w, c)
	}
	return nil
}

// Resume loads previously checkpointed head weights when the flag asks for
// it, so training continues from the checkpoint instead of fresh weights.
// It reports whether weights were loaded.
func Resume(net *feedforward.FeedforwardNetwork, resume *bool, dstmodel *string) (bool, error) {
	if resume == nil || !*resume || dstmodel == nil || *dstmodel == "" {
		return false, nil
	}
	if err := net.ReadCompressedWeightsFromFile(*dstmodel); err != nil {
		return false, errors.Wrap(err, "resume head weights")
	}
	return true, nil
}
