package plots

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/learning"
)

func decodePNG(t *testing.T, path string) (w, h int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func testImageSet(t *testing.T, n int) *datasets.ImageSet {
	t.Helper()
	const side = 28
	px := make([]uint8, n*side*side)
	for i := range px {
		px[i] = uint8(i % 256)
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % 3
	}
	set, err := datasets.NewImageSet(tensor.New(tensor.WithShape(n, side, side), tensor.WithBacking(px)), labels)
	require.NoError(t, err)
	return set
}

func TestCurvesWritePNGs(t *testing.T) {
	hist := &learning.History{}
	hist.Append(1.8, 0.4, 1.9, 0.35)
	hist.Append(1.2, 0.6, 1.4, 0.55)
	hist.Append(0.8, 0.75, 1.1, 0.68)

	dir := t.TempDir()
	require.NoError(t, Curves(hist, dir))

	w, h := decodePNG(t, filepath.Join(dir, AccuracyFile))
	require.Greater(t, w, 0)
	require.Greater(t, h, 0)
	w, h = decodePNG(t, filepath.Join(dir, LossFile))
	require.Greater(t, w, 0)
	require.Greater(t, h, 0)
}

func TestCurvesRejectEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	require.Error(t, AccuracyCurve(&learning.History{}, path))
	require.Error(t, LossCurve(nil, path))
	require.NoFileExists(t, path)
}

func TestSampleGridGeometry(t *testing.T) {
	set := testImageSet(t, 7)
	names := []string{"alpha", "beta", "gamma"}
	path := filepath.Join(t.TempDir(), "samples.png")

	require.NoError(t, SampleGrid(set, names, 2, 3, path))

	w, h := decodePNG(t, path)
	require.Equal(t, 3*(cellSize+2*cellPad), w)
	require.Equal(t, 2*(cellSize+captionH+2*cellPad), h)
}

func TestPredictionGridHandlesShortInputs(t *testing.T) {
	set := testImageSet(t, 3)
	names := []string{"alpha", "beta", "gamma"}
	pred := []int{0, 2}
	path := filepath.Join(t.TempDir(), "preds.png")

	// grid larger than the set and predictions shorter than the set
	require.NoError(t, PredictionGrid(set, pred, names, 3, 3, path))

	w, h := decodePNG(t, path)
	require.Equal(t, 3*(cellSize+2*cellPad), w)
	require.Equal(t, 3*(cellSize+captionH+2*cellPad), h)
}

func TestGridsRejectBadArgs(t *testing.T) {
	set := testImageSet(t, 2)
	path := filepath.Join(t.TempDir(), "grid.png")

	require.Error(t, SampleGrid(nil, nil, 2, 2, path))
	require.Error(t, SampleGrid(set, nil, 0, 2, path))
	require.Error(t, PredictionGrid(set, []int{0, 1}, nil, 2, -1, path))
	require.NoFileExists(t, path)
}

func TestClassNameFallsBackToIndex(t *testing.T) {
	names := []string{"alpha"}
	require.Equal(t, "alpha", className(names, 0))
	require.Equal(t, "7", className(names, 7))
	require.Equal(t, "-1", className(names, -1))
}
