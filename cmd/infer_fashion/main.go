package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"

	"github.com/fashionet/classifier/config"
	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/datasets/fashionmnist"
	"github.com/fashionet/classifier/inference"
	"github.com/fashionet/classifier/metrics"
	"github.com/fashionet/classifier/plots"
	"github.com/fashionet/classifier/trainer"
)

var logger = golog.NewDevelopmentLogger("infer_fashion")

func main() {
	cfg := config.Load()
	datadir := flag.String("datadir", cfg.DataDir, "directory with the dataset files")
	cachedir := flag.String("cachedir", cfg.CacheDir, "directory with the feature archives")
	outdir := flag.String("outdir", cfg.OutDir, "directory receiving the report and grids")
	modeldir := flag.String("modeldir", cfg.ModelDir, "directory with the trained model")
	baseweights := flag.String("baseweights", cfg.BaseWeights, "pretrained weights file of the convolutional base")
	batch := flag.Int("batch", 128, "scoring batch size")
	imgPath := flag.String("image", "", "classify one image file instead of the test set")
	flag.Parse()

	var base *convbase.Base
	if *baseweights != "" {
		base = convbase.MustNew(convbase.VGG16())
		if err := base.Load(*baseweights); err != nil {
			logger.Fatal(err)
		}
	}
	model, err := inference.Load(*modeldir, base)
	if err != nil {
		logger.Fatal(err)
	}

	if *imgPath != "" {
		classifyImage(model, *imgPath)
		return
	}

	_, testImgs, err := fashionmnist.Load(*datadir, logger)
	if err != nil {
		logger.Fatal(err)
	}

	test, err := datasets.LoadFeatureSetNpz(filepath.Join(*cachedir, trainer.TestFeaturesFile))
	if err != nil {
		if base == nil {
			logger.Fatal(err)
		}
		logger.Infow("extracting test features", "reason", err.Error())
		p := trainer.Pipeline{Base: base, Batch: *batch, Logger: logger}
		if test, err = p.Extract(testImgs); err != nil {
			logger.Fatal(err)
		}
	}
	if err := test.Flatten(); err != nil {
		logger.Fatal(err)
	}

	pred, err := model.PredictSet(test, *batch)
	if err != nil {
		logger.Fatal(err)
	}

	report, err := metrics.NewReport(pred, test.Y, model.Classes())
	if err != nil {
		logger.Fatal(err)
	}
	confusion, err := metrics.ConfusionMatrix(pred, test.Y, len(model.Classes()))
	if err != nil {
		logger.Fatal(err)
	}
	fmt.Println(report)
	fmt.Println(metrics.FormatConfusionMatrix(confusion, model.Classes()))

	if err := os.MkdirAll(*outdir, 0o755); err != nil {
		logger.Fatal(err)
	}
	reportPath := filepath.Join(*outdir, "report.txt")
	text := report.String() + "\n" + metrics.FormatConfusionMatrix(confusion, model.Classes())
	if err := os.WriteFile(reportPath, []byte(text), 0o644); err != nil {
		logger.Fatal(err)
	}
	predictionsPath := filepath.Join(*outdir, "predictions.png")
	if err := plots.PredictionGrid(testImgs, pred, model.Classes(), 5, 5, predictionsPath); err != nil {
		logger.Fatal(err)
	}
	logger.Infow("inference done",
		"accuracy", report.Accuracy, "report", reportPath,
		"predictions", predictionsPath)
}

func classifyImage(model *inference.Classifier, path string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Fatal(err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		logger.Fatal(err)
	}
	pred, err := model.Predict(img)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("classified image",
		"path", path, "class", pred.Class, "confidence", pred.Confidence)
	for _, name := range model.Classes() {
		fmt.Printf("%-12s %.4f\n", name, pred.Predictions[name])
	}
}
