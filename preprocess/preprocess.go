// Package preprocess adapts raw grayscale images to the input tensor the
// convolutional base expects: every image is upscaled with Lanczos
// resampling, expanded to three identical channels and scaled from the
// 0..255 byte range to the unit interval.
package preprocess

import (
	"image"
	"image/color"

	"github.com/edaniels/golog"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/kernels"
	"github.com/fashionet/classifier/parallel"
)

// DefaultTargetSize is the spatial input side of the convolutional base.
const DefaultTargetSize = 150

// Channels is the channel count the base expects.
const Channels = 3

// Options control the conversion.
type Options struct {
	// TargetSize is the output side length. Zero means DefaultTargetSize.
	TargetSize int
	// Workers bounds the image-level parallelism. Zero means one worker
	// per logical core.
	Workers int
}

func (o *Options) fill() {
	if o.TargetSize == 0 {
		o.TargetSize = DefaultTargetSize
	}
	if o.Workers == 0 {
		o.Workers = kernels.Workers()
	}
}

// Run converts an image set into a float feature set of shape
// (N, size, size, 3) with every value in [0,1].
func Run(set *datasets.ImageSet, opts Options, logger golog.Logger) (*datasets.FeatureSet, error) {
	opts.fill()
	if opts.TargetSize < 0 {
		return nil, errors.Errorf("preprocess: negative target size %d", opts.TargetSize)
	}
	n := set.Len()
	h, w := set.Dims()
	size := opts.TargetSize
	out := make([]float32, n*size*size*Channels)
	perImage := size * size * Channels

	parallel.ForEach(n, opts.Workers, func(i int) {
		gray := &image.Gray{
			Pix:    set.Image(i),
			Stride: w,
			Rect:   image.Rect(0, 0, w, h),
		}
		scaleInto(gray, size, out[i*perImage:(i+1)*perImage])
	})

	if logger != nil {
		logger.Infow("preprocessed images", "count", n, "size", size, "channels", Channels)
	}
	x := tensor.New(tensor.WithShape(n, size, size, Channels), tensor.WithBacking(out))
	return datasets.NewFeatureSet(x, set.Y)
}

// FromImage converts one arbitrary image to the base input layout, using the
// standard luma conversion for color inputs. The result has
// size*size*Channels values in [0,1].
func FromImage(img image.Image, size int) ([]float32, error) {
	if size <= 0 {
		return nil, errors.Errorf("preprocess: non-positive target size %d", size)
	}
	gray := toGray(img)
	out := make([]float32, size*size*Channels)
	scaleInto(gray, size, out)
	return out, nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return g
}

// scaleInto resizes gray to size×size with Lanczos resampling and writes the
// NHWC unit-interval values into dst.
func scaleInto(gray *image.Gray, size int, dst []float32) {
	resized := resize.Resize(uint(size), uint(size), gray, resize.Lanczos3)
	g, ok := resized.(*image.Gray)
	if !ok {
		g = toGray(resized)
	}
	b := g.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := float32(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 255
			o := (y*size + x) * Channels
			dst[o] = v
			dst[o+1] = v
			dst[o+2] = v
		}
	}
}
