package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
)

func TestWriteSampleGridFromTrainingImages(t *testing.T) {
	const n, side = 6, 28
	px := make([]uint8, n*side*side)
	for i := range px {
		px[i] = uint8(i % 256)
	}
	labels := []int{0, 1, 2, 3, 4, 5}
	train, err := datasets.NewImageSet(tensor.New(tensor.WithShape(n, side, side), tensor.WithBacking(px)), labels)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	path, err := writeSampleGrid(train, dir)
	require.NoError(t, err)
	require.Equal(t, "samples.png", filepath.Base(path))
	require.Equal(t, dir, filepath.Dir(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	// 5x5 grid of 96px cells with 6px padding and an 18px caption band.
	require.Equal(t, 540, img.Bounds().Dx())
	require.Equal(t, 630, img.Bounds().Dy())
}
