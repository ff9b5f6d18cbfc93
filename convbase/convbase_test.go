package convbase

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tinyConfig() Config {
	return Config{
		Name:      "tiny",
		InputSize: 8,
		Channels:  3,
		Kernel:    3,
		Pool:      2,
		Layers: []LayerSpec{
			{Name: "block1_conv1", Kind: Conv, Filters: 4},
			{Name: "block1_pool", Kind: Pool},
		},
	}
}

func TestVGG16Geometry(t *testing.T) {
	cfg := VGG16()
	require.Equal(t, "vgg16", cfg.Name)
	require.Len(t, cfg.Layers, 18)

	b := MustNew(cfg)
	require.Equal(t, 150*150*3, b.InSize())
	h, w, c := b.OutShape()
	require.Equal(t, 4, h)
	require.Equal(t, 4, w)
	require.Equal(t, 512, c)
	require.Equal(t, 4*4*512, b.OutSize())
}

func TestTinyBaseForward(t *testing.T) {
	b := MustNew(tinyConfig())
	require.Equal(t, 8*8*3, b.InSize())
	require.Equal(t, 4*4*4, b.OutSize())

	b.InitRandom(5)
	x := make([]float32, 2*b.InSize())
	for i := range x {
		x[i] = float32(i%7) / 7
	}
	y, err := b.Forward(x, 2)
	require.NoError(t, err)
	require.Len(t, y, 2*b.OutSize())

	var nonzero bool
	for _, v := range y {
		if v != 0 {
			nonzero = true
		}
		require.GreaterOrEqual(t, v, float32(0)) // relu output
	}
	require.True(t, nonzero)

	// same seed lays the same filters
	b2 := MustNew(tinyConfig())
	b2.InitRandom(5)
	y2, err := b2.Forward(x, 2)
	require.NoError(t, err)
	require.Equal(t, y, y2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := MustNew(tinyConfig())
	b.InitRandom(11)

	path := filepath.Join(t.TempDir(), "base.weights")
	require.NoError(t, b.Save(path))

	loaded := MustNew(tinyConfig())
	require.NoError(t, loaded.Load(path))

	x := make([]float32, b.InSize())
	for i := range x {
		x[i] = float32(i) / float32(len(x))
	}
	want, err := b.Forward(x, 1)
	require.NoError(t, err)
	got, err := loaded.Forward(x, 1)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	b := MustNew(tinyConfig())
	require.Error(t, b.Load(filepath.Join(t.TempDir(), "absent.weights")))
}

func TestBadConfigs(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero input":     func(c *Config) { c.InputSize = 0 },
		"even kernel":    func(c *Config) { c.Kernel = 4 },
		"zero pool":      func(c *Config) { c.Pool = 0 },
		"no layers":      func(c *Config) { c.Layers = nil },
		"unknown kind":   func(c *Config) { c.Layers[0].Kind = "drop" },
		"conv no filter": func(c *Config) { c.Layers[0].Filters = 0 },
	} {
		cfg := tinyConfig()
		mutate(&cfg)
		_, err := New(cfg)
		require.Error(t, err, name)
	}
}

func TestForwardRejectsWrongLength(t *testing.T) {
	b := MustNew(tinyConfig())
	_, err := b.Forward(make([]float32, 10), 1)
	require.Error(t, err)
}
