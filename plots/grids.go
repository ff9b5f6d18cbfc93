package plots

import (
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fashionet/classifier/datasets"
)

var gridFont *truetype.Font

// init sets up the font used for grid captions.
func init() {
	var err error
	gridFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Grid cell geometry, in pixels.
const (
	cellSize    = 96
	cellPad     = 6
	captionH    = 18
	captionSize = 11
)

var (
	captionColor = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	correctColor = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	wrongColor   = color.RGBA{R: 204, G: 0, B: 0, A: 255}
)

// SampleGrid draws the first rows*cols images of the set in a grid, each
// captioned with its class name, and writes the result as a PNG. Cells past
// the end of the set stay blank.
func SampleGrid(set *datasets.ImageSet, names []string, rows, cols int, path string) error {
	dc, err := newGrid(set, rows, cols)
	if err != nil {
		return err
	}
	n := min(rows*cols, set.Len())
	for k := 0; k < n; k++ {
		drawCell(dc, set, k, cols, className(names, set.Y[k]), captionColor)
	}
	return errors.Wrap(dc.SavePNG(path), "save sample grid")
}

// PredictionGrid draws the first rows*cols images of the set with their
// predicted labels, and writes the result as a PNG. Correct predictions are
// captioned in green with the class name; mistakes in red as "predicted /
// true". Cells past the end of the set or the predictions stay blank.
func PredictionGrid(set *datasets.ImageSet, pred []int, names []string, rows, cols int, path string) error {
	dc, err := newGrid(set, rows, cols)
	if err != nil {
		return err
	}
	n := min(rows*cols, set.Len(), len(pred))
	for k := 0; k < n; k++ {
		caption := className(names, pred[k])
		c := correctColor
		if pred[k] != set.Y[k] {
			caption += " / " + className(names, set.Y[k])
			c = wrongColor
		}
		drawCell(dc, set, k, cols, caption, c)
	}
	return errors.Wrap(dc.SavePNG(path), "save prediction grid")
}

func newGrid(set *datasets.ImageSet, rows, cols int) (*gg.Context, error) {
	if set == nil || set.Len() == 0 {
		return nil, errors.New("plots: empty image set")
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("plots: grid %dx%d not positive", rows, cols)
	}
	dc := gg.NewContext(cols*(cellSize+2*cellPad), rows*(cellSize+captionH+2*cellPad))
	dc.SetColor(color.White)
	dc.Clear()
	return dc, nil
}

// drawCell renders the k-th image and its caption at grid position k.
func drawCell(dc *gg.Context, set *datasets.ImageSet, k, cols int, caption string, c color.Color) {
	x := (k%cols)*(cellSize+2*cellPad) + cellPad
	y := (k/cols)*(cellSize+captionH+2*cellPad) + cellPad

	h, w := set.Dims()
	gray := &image.Gray{Pix: set.Image(k), Stride: w, Rect: image.Rect(0, 0, w, h)}
	dc.DrawImage(resize.Resize(cellSize, cellSize, gray, resize.NearestNeighbor), x, y)

	dc.SetFontFace(truetype.NewFace(gridFont, &truetype.Options{Size: captionSize}))
	dc.SetColor(c)
	dc.DrawStringAnchored(caption, float64(x)+cellSize/2, float64(y+cellSize)+captionH/2, 0.5, 0.5)
}

func className(names []string, label int) string {
	if label >= 0 && label < len(names) {
		return names[label]
	}
	return strconv.Itoa(label)
}
