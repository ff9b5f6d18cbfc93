// Package datasets implements the labeled sample set types moved through the
// pipeline: raw image sets as loaded from disk and float feature sets as
// produced by preprocessing and feature extraction.
package datasets

import (
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ImageSet is a set of raw grayscale images with one integer label each.
// X has shape (N, H, W) and uint8 values, straight from the source files.
type ImageSet struct {
	X *tensor.Dense
	Y []int
}

// NewImageSet wraps an image tensor and its labels, validating that they
// describe the same number of samples.
func NewImageSet(x *tensor.Dense, y []int) (*ImageSet, error) {
	if x == nil {
		return nil, errors.New("imageset: nil tensor")
	}
	shape := x.Shape()
	if len(shape) != 3 {
		return nil, errors.Errorf("imageset: want 3 dimensions (N, H, W), got %v", shape)
	}
	if _, ok := x.Data().([]uint8); !ok {
		return nil, errors.Errorf("imageset: want uint8 pixels, got %v", x.Dtype())
	}
	if len(y) != shape[0] {
		return nil, errors.Errorf("imageset: %d labels for %d images", len(y), shape[0])
	}
	return &ImageSet{X: x, Y: y}, nil
}

// Len returns the number of images.
func (s *ImageSet) Len() int { return s.X.Shape()[0] }

// Dims returns the height and width of every image.
func (s *ImageSet) Dims() (h, w int) {
	shape := s.X.Shape()
	return shape[1], shape[2]
}

// Image returns the raw pixels of the i-th image.
func (s *ImageSet) Image(i int) []uint8 {
	h, w := s.Dims()
	px := s.X.Data().([]uint8)
	return px[i*h*w : (i+1)*h*w]
}

// Raw returns the backing pixels of the whole set, row-major.
func (s *ImageSet) Raw() []uint8 {
	return s.X.Data().([]uint8)
}

// Split partitions the set into train and validation parts. The validation
// part receives floor(N*ratio) samples chosen by a seeded permutation, the
// train part the rest, so the two sizes always sum to N.
func (s *ImageSet) Split(ratio float64, seed int64) (train, val *ImageSet, err error) {
	trainIdx, valIdx, err := splitIndices(s.Len(), ratio, seed)
	if err != nil {
		return nil, nil, err
	}
	h, w := s.Dims()
	px := s.X.Data().([]uint8)
	train = &ImageSet{X: gatherUint8Rows(px, trainIdx, h, w), Y: gatherLabels(s.Y, trainIdx)}
	val = &ImageSet{X: gatherUint8Rows(px, valIdx, h, w), Y: gatherLabels(s.Y, valIdx)}
	return train, val, nil
}

// FeatureSet is a set of float32 samples with one integer label each. The
// first dimension of X indexes samples; the remaining dimensions are the
// per-sample form, for example (150, 150, 3) after preprocessing or
// (4, 4, 512) after the convolutional base.
type FeatureSet struct {
	X *tensor.Dense
	Y []int
}

// NewFeatureSet wraps a float tensor and its labels, validating that they
// describe the same number of samples.
func NewFeatureSet(x *tensor.Dense, y []int) (*FeatureSet, error) {
	if x == nil {
		return nil, errors.New("featureset: nil tensor")
	}
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, errors.Errorf("featureset: want at least 2 dimensions, got %v", shape)
	}
	if _, ok := x.Data().([]float32); !ok {
		return nil, errors.Errorf("featureset: want float32 samples, got %v", x.Dtype())
	}
	if len(y) != shape[0] {
		return nil, errors.Errorf("featureset: %d labels for %d samples", len(y), shape[0])
	}
	return &FeatureSet{X: x, Y: y}, nil
}

// Len returns the number of samples.
func (s *FeatureSet) Len() int { return s.X.Shape()[0] }

// SampleSize returns the flat per-sample length.
func (s *FeatureSet) SampleSize() int {
	n := 1
	for _, d := range s.X.Shape()[1:] {
		n *= d
	}
	return n
}

// Row returns the flat values of the i-th sample.
func (s *FeatureSet) Row(i int) []float32 {
	size := s.SampleSize()
	return s.X.Data().([]float32)[i*size : (i+1)*size]
}

// Raw returns the backing values of the whole set, row-major.
func (s *FeatureSet) Raw() []float32 {
	return s.X.Data().([]float32)
}

// Flatten reshapes the samples in place to (N, SampleSize).
func (s *FeatureSet) Flatten() error {
	if err := s.X.Reshape(s.Len(), s.SampleSize()); err != nil {
		return errors.Wrap(err, "flatten features")
	}
	return nil
}

// Shuffle permutes samples and labels in lockstep using the seed.
func (s *FeatureSet) Shuffle(seed int64) {
	size := s.SampleSize()
	data := s.Raw()
	scratch := make([]float32, size)
	rand.New(rand.NewSource(seed)).Shuffle(s.Len(), func(i, j int) {
		a, b := data[i*size:(i+1)*size], data[j*size:(j+1)*size]
		copy(scratch, a)
		copy(a, b)
		copy(b, scratch)
		s.Y[i], s.Y[j] = s.Y[j], s.Y[i]
	})
}

// Split partitions the set into train and validation parts. The validation
// part receives floor(N*ratio) samples chosen by a seeded permutation, the
// train part the rest, so the two sizes always sum to N.
func (s *FeatureSet) Split(ratio float64, seed int64) (train, val *FeatureSet, err error) {
	trainIdx, valIdx, err := splitIndices(s.Len(), ratio, seed)
	if err != nil {
		return nil, nil, err
	}
	sub := s.X.Shape()[1:]
	size := s.SampleSize()
	train = &FeatureSet{X: gatherFloat32Rows(s.Raw(), size, trainIdx, sub), Y: gatherLabels(s.Y, trainIdx)}
	val = &FeatureSet{X: gatherFloat32Rows(s.Raw(), size, valIdx, sub), Y: gatherLabels(s.Y, valIdx)}
	return train, val, nil
}

// splitIndices permutes [0,n) with the seed and cuts the permutation into a
// train part and a validation part of floor(n*ratio) indices.
func splitIndices(n int, ratio float64, seed int64) (train, val []int, err error) {
	if ratio < 0 || ratio >= 1 {
		return nil, nil, errors.Errorf("split: ratio %v outside [0,1)", ratio)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	k := int(float64(n) * ratio)
	if k == 0 || k == n {
		return nil, nil, errors.Errorf("split: ratio %v leaves an empty part for %d samples", ratio, n)
	}
	return perm[k:], perm[:k], nil
}

func gatherLabels(y []int, idx []int) []int {
	o := make([]int, len(idx))
	for i, j := range idx {
		o[i] = y[j]
	}
	return o
}

func gatherUint8Rows(data []uint8, idx []int, h, w int) *tensor.Dense {
	size := h * w
	o := make([]uint8, len(idx)*size)
	for i, j := range idx {
		copy(o[i*size:(i+1)*size], data[j*size:(j+1)*size])
	}
	return tensor.New(tensor.WithShape(len(idx), h, w), tensor.WithBacking(o))
}

func gatherFloat32Rows(data []float32, size int, idx []int, sub tensor.Shape) *tensor.Dense {
	o := make([]float32, len(idx)*size)
	for i, j := range idx {
		copy(o[i*size:(i+1)*size], data[j*size:(j+1)*size])
	}
	shape := append([]int{len(idx)}, sub...)
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(o))
}
