package softmax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowsSumToOne(t *testing.T) {
	s := MustNew(4).Lay().(*Softmax)
	y := s.Forward([]float32{1, 2, 3, 4, -1, 0, 1, 2}, 2, false)
	for i := 0; i < 2; i++ {
		var sum float64
		for _, v := range y[i*4 : (i+1)*4] {
			require.Greater(t, v, float32(0))
			sum += float64(v)
		}
		require.InDelta(t, 1, sum, 1e-5)
	}
}

func TestUniformLogits(t *testing.T) {
	s := MustNew(5).Lay().(*Softmax)
	y := s.Forward([]float32{3, 3, 3, 3, 3}, 1, false)
	for _, v := range y {
		require.InDelta(t, 0.2, float64(v), 1e-6)
	}
}

func TestLargeLogitsStayFinite(t *testing.T) {
	s := MustNew(3).Lay().(*Softmax)
	y := s.Forward([]float32{1000, 999, -1000}, 1, false)
	for _, v := range y {
		require.False(t, math.IsNaN(float64(v)))
		require.False(t, math.IsInf(float64(v), 0))
	}
	require.Greater(t, y[0], y[1])
	require.InDelta(t, 0, float64(y[2]), 1e-6)
}

func TestKnownTwoClassValues(t *testing.T) {
	s := MustNew(2).Lay().(*Softmax)
	y := s.Forward([]float32{0, float32(math.Log(3))}, 1, false)
	require.InDelta(t, 0.25, float64(y[0]), 1e-5)
	require.InDelta(t, 0.75, float64(y[1]), 1e-5)
}

func TestBackwardPassesThrough(t *testing.T) {
	s := MustNew(2).Lay().(*Softmax)
	g := []float32{0.5, -0.5}
	require.Equal(t, g, s.Backward(g))
}
