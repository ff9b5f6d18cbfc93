// Package plots renders the figures of a classifier run: accuracy and loss
// curves over epochs, and image grids with labeled samples.
package plots

import (
	"image/color"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fashionet/classifier/learning"
)

// File names written by Curves.
const (
	AccuracyFile = "accuracy.png"
	LossFile     = "loss.png"
)

var (
	trainColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	valColor   = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// Curves writes the accuracy and loss curves of a training history into dir,
// as AccuracyFile and LossFile.
func Curves(h *learning.History, dir string) error {
	if err := AccuracyCurve(h, filepath.Join(dir, AccuracyFile)); err != nil {
		return err
	}
	return LossCurve(h, filepath.Join(dir, LossFile))
}

// AccuracyCurve plots training and validation accuracy per epoch into a PNG.
func AccuracyCurve(h *learning.History, path string) error {
	if h == nil || h.Epochs() == 0 {
		return errors.New("plots: empty history")
	}
	return curve("Training and validation accuracy", "accuracy", h.Acc, h.ValAcc, path)
}

// LossCurve plots training and validation loss per epoch into a PNG.
func LossCurve(h *learning.History, path string) error {
	if h == nil || h.Epochs() == 0 {
		return errors.New("plots: empty history")
	}
	return curve("Training and validation loss", "loss", h.Loss, h.ValLoss, path)
}

func curve(title, ylabel string, train, val []float64, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	if err := addLine(p, "training", train, trainColor); err != nil {
		return err
	}
	if len(val) > 0 {
		if err := addLine(p, "validation", val, valColor); err != nil {
			return err
		}
	}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s plot", ylabel)
	}
	return nil
}

// addLine adds one series to the plot, with epochs numbered from 1.
func addLine(p *plot.Plot, name string, values []float64, c color.RGBA) error {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrapf(err, "plot %s series", name)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}
