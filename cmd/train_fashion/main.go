package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/config"
	"github.com/fashionet/classifier/convbase"
	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/datasets/fashionmnist"
	"github.com/fashionet/classifier/inference"
	"github.com/fashionet/classifier/learning"
	"github.com/fashionet/classifier/plots"
	"github.com/fashionet/classifier/trainer"
)

var logger = golog.NewDevelopmentLogger("train_fashion")

func main() {
	cfg := config.Load()
	datadir := flag.String("datadir", cfg.DataDir, "directory with the dataset files")
	cachedir := flag.String("cachedir", cfg.CacheDir, "directory with the feature archives")
	outdir := flag.String("outdir", cfg.OutDir, "directory receiving curves and history")
	modeldir := flag.String("modeldir", cfg.ModelDir, "directory receiving the trained model")
	baseweights := flag.String("baseweights", cfg.BaseWeights, "pretrained weights file of the convolutional base")
	epochs := flag.Int("epochs", 20, "training epochs")
	batch := flag.Int("batch", 128, "minibatch size")
	rate := flag.Float64("rate", 1e-4, "learning rate")
	hidden := flag.Int("hidden", 256, "hidden units of the head")
	dropout := flag.Float64("dropout", 0.5, "dropout rate of the head")
	ratio := flag.Float64("ratio", 0.2, "validation share of the training images")
	seed := flag.Int64("seed", 42, "seed for splitting, shuffling and initialization")
	resume := flag.Bool("resume", false, "resume training from the checkpoint")
	flag.Bool("pgo", false, "enable pgo")
	flag.Parse()

	base := convbase.MustNew(convbase.VGG16())
	if *baseweights != "" {
		if err := base.Load(*baseweights); err != nil {
			logger.Fatal(err)
		}
	}

	p := trainer.Pipeline{
		Base:     base,
		CacheDir: *cachedir,
		Batch:    *batch,
		ValRatio: *ratio,
		Seed:     *seed,
		Logger:   logger,
	}
	train, val, test, err := p.Features(func() (*datasets.ImageSet, *datasets.ImageSet, error) {
		if *baseweights == "" {
			return nil, nil, errors.New("feature cache is incomplete and no base weights were given")
		}
		return fashionmnist.Load(*datadir, logger)
	})
	if err != nil {
		logger.Fatal(err)
	}
	for _, set := range []*datasets.FeatureSet{train, val, test} {
		if err := set.Flatten(); err != nil {
			logger.Fatal(err)
		}
	}

	head, err := inference.NewHead(base.OutSize(), *hidden, fashionmnist.NumClasses, *dropout, *seed)
	if err != nil {
		logger.Fatal(err)
	}

	if err := os.MkdirAll(*modeldir, 0o755); err != nil {
		logger.Fatal(err)
	}
	checkpoint := filepath.Join(*modeldir, inference.WeightsFile)
	resumed, err := trainer.Resume(head, resume, &checkpoint)
	if err != nil {
		logger.Fatal(err)
	}
	if resumed {
		logger.Infow("resumed head weights", "path", checkpoint)
	}

	var h learning.HyperParameters
	h.Epochs = *epochs
	h.BatchSize = *batch
	h.LearningRate = *rate

	// rmsprop with the keras defaults
	h.Optimizer = learning.RMSProp
	h.Rho = 0.9
	h.Epsilon = 1e-7

	// reshuffle the minibatches every epoch
	h.Shuffle = true
	h.Seed = *seed

	h.WeightInit = learning.GlorotUniform
	if resumed {
		// keep the checkpointed weights
		h.WeightInit = learning.NoInit
	}

	best := -1.0
	h.AfterEpoch = trainer.NewEvaluateFunc(head, &best, &checkpoint, logger)
	h.SetLogger(logger)

	hist, err := h.Training(head, train, val)
	if err != nil {
		logger.Fatal(err)
	}

	// score the best checkpointed epoch, not the last one
	if err := head.ReadCompressedWeightsFromFile(checkpoint); err != nil {
		logger.Fatal(err)
	}
	loss, acc, err := learning.Evaluate(head, test, *batch)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infow("test evaluation", "loss", loss, "accuracy", acc)

	model, err := inference.New(base, head, fashionmnist.ClassNames)
	if err != nil {
		logger.Fatal(err)
	}
	if err := model.Save(*modeldir); err != nil {
		logger.Fatal(err)
	}

	if err := os.MkdirAll(*outdir, 0o755); err != nil {
		logger.Fatal(err)
	}
	if err := hist.SaveCSV(filepath.Join(*outdir, "history.csv")); err != nil {
		logger.Fatal(err)
	}
	if err := plots.Curves(hist, *outdir); err != nil {
		logger.Fatal(err)
	}
	logger.Infow("training done",
		"model", *modeldir, "best_val_accuracy", best,
		"test_accuracy", acc, "epochs", hist.Epochs())
}
