// Package fashionmnist loads the Fashion-MNIST dataset, either from the
// Kaggle CSV exports (one label column plus 784 pixel columns per row) or
// from the original IDX archives.
package fashionmnist

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/datasets"
)

// ImgSize is the side of every source image.
const ImgSize = 28

// NumClasses is the number of garment classes.
const NumClasses = 10

// ClassNames lists the garment classes in label order.
var ClassNames = []string{
	"T-shirt/top",
	"Trouser",
	"Pullover",
	"Dress",
	"Coat",
	"Sandal",
	"Shirt",
	"Sneaker",
	"Bag",
	"Ankle boot",
}

const (
	trainCSV = "fashion-mnist_train.csv"
	testCSV  = "fashion-mnist_test.csv"

	trainSetImg = "train-images-idx3-ubyte.gz"
	trainSetVal = "train-labels-idx1-ubyte.gz"
	testSetImg  = "t10k-images-idx3-ubyte.gz"
	testSetVal  = "t10k-labels-idx1-ubyte.gz"
)

const tmpDirectory = "/tmp/fashion-mnist"

func userHomeDir() string {
	dirname, err := os.UserHomeDir()
	if err != nil {
		return "~"
	}
	return dirname
}

var searchDirectories = []string{
	".",
	"data",
	tmpDirectory,
	filepath.Join(userHomeDir(), ".cache", "fashion-mnist"),
}

// Load loads the train and test sets from dir. The CSV exports are preferred;
// the IDX archives are the fallback. When dir is empty the usual locations
// are searched. The sha256 of every file read is logged so runs can be
// matched to exact dataset revisions.
func Load(dir string, logger golog.Logger) (train, test *datasets.ImageSet, err error) {
	dirs := searchDirectories
	if dir != "" {
		dirs = []string{dir}
	}
	for _, d := range dirs {
		if hasAll(d, trainCSV, testCSV) {
			train, err = LoadCSV(filepath.Join(d, trainCSV), logger)
			if err != nil {
				return nil, nil, err
			}
			test, err = LoadCSV(filepath.Join(d, testCSV), logger)
			if err != nil {
				return nil, nil, err
			}
			return train, test, nil
		}
		if hasAll(d, trainCSV+".gz", testCSV+".gz") {
			train, err = LoadCSV(filepath.Join(d, trainCSV+".gz"), logger)
			if err != nil {
				return nil, nil, err
			}
			test, err = LoadCSV(filepath.Join(d, testCSV+".gz"), logger)
			if err != nil {
				return nil, nil, err
			}
			return train, test, nil
		}
		if hasAll(d, trainSetImg, trainSetVal, testSetImg, testSetVal) {
			train, err = LoadIDX(filepath.Join(d, trainSetImg), filepath.Join(d, trainSetVal), logger)
			if err != nil {
				return nil, nil, err
			}
			test, err = LoadIDX(filepath.Join(d, testSetImg), filepath.Join(d, testSetVal), logger)
			if err != nil {
				return nil, nil, err
			}
			return train, test, nil
		}
	}
	return nil, nil, errors.Errorf(
		"no Fashion-MNIST files found under %v; want %s+%s or the IDX archives", dirs, trainCSV, testCSV)
}

func hasAll(dir string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// checksum returns the hex sha256 of the file.
func checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "hash %s", path)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func logChecksum(path string, logger golog.Logger) {
	if logger == nil {
		return
	}
	sum, err := checksum(path)
	if err != nil {
		logger.Debugw("checksum failed", "path", path, "error", err)
		return
	}
	logger.Debugw("dataset file", "path", path, "sha256", sum)
}
