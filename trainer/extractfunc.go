package trainer

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/preprocess"
)

// Extract pushes every image through preprocessing and the frozen base and
// returns the features in the spatial output form of the base. Images move
// in batches so only one batch of preprocessed floats is alive at a time.
func (p *Pipeline) Extract(set *datasets.ImageSet) (*datasets.FeatureSet, error) {
	p.fill()
	if p.Base == nil {
		return nil, errors.New("trainer: nil base")
	}
	if set == nil || set.Len() == 0 {
		return nil, errors.New("trainer: empty image set")
	}

	n := set.Len()
	imgH, imgW := set.Dims()
	size := imgH * imgW
	px := set.Raw()
	outSize := p.Base.OutSize()
	out := make([]float32, n*outSize)

	opts := preprocess.Options{
		TargetSize: p.Base.Config().InputSize,
		Workers:    p.Workers,
	}
	for start := 0; start < n; start += p.Batch {
		end := min(start+p.Batch, n)
		window, err := datasets.NewImageSet(
			tensor.New(tensor.WithShape(end-start, imgH, imgW), tensor.WithBacking(px[start*size:end*size])),
			set.Y[start:end])
		if err != nil {
			return nil, err
		}
		floats, err := preprocess.Run(window, opts, nil)
		if err != nil {
			return nil, err
		}
		features, err := p.Base.Forward(floats.Raw(), end-start)
		if err != nil {
			return nil, errors.Wrapf(err, "batch at %d", start)
		}
		copy(out[start*outSize:end*outSize], features)
		if p.Logger != nil {
			p.Logger.Debugw("extracted features", "done", end, "total", n)
		}
	}

	h, w, c := p.Base.OutShape()
	x := tensor.New(tensor.WithShape(n, h, w, c), tensor.WithBacking(out))
	return datasets.NewFeatureSet(x, set.Y)
}
