package dropout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalPassesThrough(t *testing.T) {
	d := MustNew(4, 0.5, 1).Lay().(*Dropout)
	x := []float32{1, 2, 3, 4}
	y := d.Forward(x, 1, false)
	require.Equal(t, x, y)
}

func TestTrainDropsAboutRateAndScalesSurvivors(t *testing.T) {
	const size, batch = 100, 100
	const rate = 0.5
	d := MustNew(size, rate, 7).Lay().(*Dropout)
	x := make([]float32, size*batch)
	for i := range x {
		x[i] = 1
	}
	y := d.Forward(x, batch, true)

	dropped := 0
	for _, v := range y {
		switch v {
		case 0:
			dropped++
		case 2: // 1/(1-0.5)
		default:
			t.Fatalf("unexpected value %v", v)
		}
	}
	frac := float64(dropped) / float64(len(y))
	require.InDelta(t, rate, frac, 0.02)
}

func TestBackwardUsesForwardMask(t *testing.T) {
	d := MustNew(8, 0.5, 3).Lay().(*Dropout)
	x := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	y := d.Forward(x, 1, true)
	grad := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	dx := d.Backward(grad)
	for i := range y {
		if y[i] == 0 {
			require.Zero(t, dx[i])
		} else {
			require.Equal(t, float32(2), dx[i])
		}
	}
}

func TestSameSeedSameMask(t *testing.T) {
	x := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	a := MustNew(8, 0.3, 11).Lay().(*Dropout).Forward(x, 1, true)
	b := MustNew(8, 0.3, 11).Lay().(*Dropout).Forward(x, 1, true)
	require.Equal(t, a, b)
}

func TestZeroRateIsIdentityInTraining(t *testing.T) {
	d := MustNew(4, 0, 1).Lay().(*Dropout)
	x := []float32{1, 2, 3, 4}
	require.Equal(t, x, d.Forward(x, 1, true))
}

func TestNewRejectsBadRate(t *testing.T) {
	_, err := New(4, 1, 1)
	require.Error(t, err)
	_, err = New(4, -0.1, 1)
	require.Error(t, err)
	_, err = New(0, 0.5, 1)
	require.Error(t, err)
}
