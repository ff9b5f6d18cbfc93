package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"

	"github.com/fashionet/classifier/config"
	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/datasets/fashionmnist"
	"github.com/fashionet/classifier/plots"
	"github.com/fashionet/classifier/trainer"
)

var logger = golog.NewDevelopmentLogger("extract_fashion")

func main() {
	cfg := config.Load()
	datadir := flag.String("datadir", cfg.DataDir, "directory with the dataset files")
	cachedir := flag.String("cachedir", cfg.CacheDir, "directory receiving the feature archives")
	outdir := flag.String("outdir", cfg.OutDir, "directory receiving the sample grid")
	baseweights := flag.String("baseweights", cfg.BaseWeights, "pretrained weights file of the convolutional base")
	batch := flag.Int("batch", 128, "images per extraction batch")
	ratio := flag.Float64("ratio", 0.2, "validation share of the training images")
	seed := flag.Int64("seed", 42, "split seed")
	flag.Parse()

	if *baseweights == "" {
		logger.Fatal("no base weights; pass -baseweights or set FASHION_BASE_WEIGHTS")
	}
	base := convbase.MustNew(convbase.VGG16())
	if err := base.Load(*baseweights); err != nil {
		logger.Fatal(err)
	}

	train, test, err := fashionmnist.Load(*datadir, logger)
	if err != nil {
		logger.Fatal(err)
	}

	samples, err := writeSampleGrid(train, *outdir)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("wrote sample grid", "path", samples)

	p := trainer.Pipeline{
		Base:     base,
		CacheDir: *cachedir,
		Batch:    *batch,
		ValRatio: *ratio,
		Seed:     *seed,
		Logger:   logger,
	}
	tr, val, te, err := p.Run(train, test)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("extraction done",
		"train", tr.X.Shape(), "validation", val.X.Shape(), "test", te.X.Shape(),
		"cache", *cachedir)
}

// writeSampleGrid draws the first 25 training images with their class names.
func writeSampleGrid(train *datasets.ImageSet, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "samples.png")
	if err := plots.SampleGrid(train, fashionmnist.ClassNames, 5, 5, path); err != nil {
		return "", err
	}
	return path, nil
}
