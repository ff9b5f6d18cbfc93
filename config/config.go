// Package config reads the run layout from the environment, with an
// optional .env file in the working directory.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the directory layout of a classifier run. Every field comes
// from a FASHION_* environment variable.
type Config struct {
	// DataDir holds the dataset files. Empty means the usual locations
	// are searched.
	DataDir string
	// CacheDir receives the extracted feature archives.
	CacheDir string
	// OutDir receives plots, grids, the report and the history.
	OutDir string
	// ModelDir receives the saved model.
	ModelDir string
	// BaseWeights is the pretrained weights file of the convolutional base.
	BaseWeights string
}

// Load reads the configuration, first from a .env file when one is present,
// then from the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DataDir:     os.Getenv("FASHION_DATA_DIR"),
		CacheDir:    getenv("FASHION_CACHE_DIR", "cache"),
		OutDir:      getenv("FASHION_OUT_DIR", "out"),
		ModelDir:    getenv("FASHION_MODEL_DIR", "model"),
		BaseWeights: os.Getenv("FASHION_BASE_WEIGHTS"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
