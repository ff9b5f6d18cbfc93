package datasets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func newTestImageSet(t *testing.T, n, h, w int) *ImageSet {
	t.Helper()
	px := make([]uint8, n*h*w)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 10
		for j := 0; j < h*w; j++ {
			px[i*h*w+j] = uint8(i)
		}
	}
	s, err := NewImageSet(tensor.New(tensor.WithShape(n, h, w), tensor.WithBacking(px)), y)
	require.NoError(t, err)
	return s
}

func newTestFeatureSet(t *testing.T, n, size int) *FeatureSet {
	t.Helper()
	data := make([]float32, n*size)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		y[i] = i % 10
		for j := 0; j < size; j++ {
			data[i*size+j] = float32(i)
		}
	}
	s, err := NewFeatureSet(tensor.New(tensor.WithShape(n, size), tensor.WithBacking(data)), y)
	require.NoError(t, err)
	return s
}

func TestNewImageSetValidates(t *testing.T) {
	px := make([]uint8, 2*3*3)
	x := tensor.New(tensor.WithShape(2, 3, 3), tensor.WithBacking(px))
	_, err := NewImageSet(x, []int{1})
	require.Error(t, err)

	flat := tensor.New(tensor.WithShape(2, 9), tensor.WithBacking(make([]uint8, 18)))
	_, err = NewImageSet(flat, []int{1, 2})
	require.Error(t, err)

	floats := tensor.New(tensor.WithShape(2, 3, 3), tensor.WithBacking(make([]float32, 18)))
	_, err = NewImageSet(floats, []int{1, 2})
	require.Error(t, err)

	_, err = NewImageSet(nil, nil)
	require.Error(t, err)
}

func TestImageSetAccessors(t *testing.T) {
	s := newTestImageSet(t, 4, 2, 3)
	require.Equal(t, 4, s.Len())
	h, w := s.Dims()
	require.Equal(t, 2, h)
	require.Equal(t, 3, w)
	require.Equal(t, []uint8{2, 2, 2, 2, 2, 2}, s.Image(2))
}

func TestImageSetSplitSizesSumToOriginal(t *testing.T) {
	s := newTestImageSet(t, 100, 2, 2)
	train, val, err := s.Split(0.2, 42)
	require.NoError(t, err)
	require.Equal(t, 80, train.Len())
	require.Equal(t, 20, val.Len())
	require.Equal(t, s.Len(), train.Len()+val.Len())

	// Image/label pairing survives the gather.
	for i := 0; i < val.Len(); i++ {
		require.Equal(t, val.Y[i]%10, int(val.Image(i)[0])%10)
	}
}

func TestSplitIsDeterministicAndDisjoint(t *testing.T) {
	s := newTestFeatureSet(t, 40, 3)
	train1, val1, err := s.Split(0.25, 1)
	require.NoError(t, err)
	train2, val2, err := s.Split(0.25, 1)
	require.NoError(t, err)
	require.Equal(t, val1.Y, val2.Y)
	require.Equal(t, train1.Y, train2.Y)

	// Each source row carries its index as value, so the union of row ids
	// must cover 0..39 exactly once.
	seen := map[int]bool{}
	for i := 0; i < train1.Len(); i++ {
		seen[int(train1.Row(i)[0])] = true
	}
	for i := 0; i < val1.Len(); i++ {
		id := int(val1.Row(i)[0])
		require.False(t, seen[id], "row %d in both parts", id)
		seen[id] = true
	}
	require.Len(t, seen, 40)
}

func TestSplitRejectsBadRatios(t *testing.T) {
	s := newTestFeatureSet(t, 10, 2)
	_, _, err := s.Split(-0.1, 1)
	require.Error(t, err)
	_, _, err = s.Split(1.0, 1)
	require.Error(t, err)
	_, _, err = s.Split(0.01, 1) // floor(10*0.01) = 0
	require.Error(t, err)
}

func TestFeatureSetFlatten(t *testing.T) {
	data := make([]float32, 2*4*4*8)
	x := tensor.New(tensor.WithShape(2, 4, 4, 8), tensor.WithBacking(data))
	s, err := NewFeatureSet(x, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, 128, s.SampleSize())
	require.NoError(t, s.Flatten())
	require.Equal(t, []int{2, 128}, []int(s.X.Shape()))
	require.Equal(t, 128, s.SampleSize())
}

func TestFeatureSetShuffleKeepsPairs(t *testing.T) {
	s := newTestFeatureSet(t, 30, 4)
	s.Shuffle(3)
	for i := 0; i < s.Len(); i++ {
		require.Equal(t, float32(0), s.Row(i)[0]-s.Row(i)[1], "rows must stay intact")
		require.Equal(t, s.Y[i]%10, int(s.Row(i)[0])%10)
	}
}

func TestOneHot(t *testing.T) {
	oh, err := OneHot([]int{0, 2, 1}, 3)
	require.NoError(t, err)
	require.Equal(t, []int{3, 3}, []int(oh.Shape()))
	require.Equal(t, []float32{
		1, 0, 0,
		0, 0, 1,
		0, 1, 0,
	}, oh.Data().([]float32))
}

func TestOneHotRejectsBadLabels(t *testing.T) {
	_, err := OneHot([]int{0, 3}, 3)
	require.Error(t, err)
	_, err = OneHot([]int{-1}, 3)
	require.Error(t, err)
	_, err = OneHot(nil, 3)
	require.Error(t, err)
	_, err = OneHot([]int{0}, 0)
	require.Error(t, err)
}
