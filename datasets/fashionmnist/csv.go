package fashionmnist

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
)

// LoadCSV reads a Kaggle-style export: an optional header row, then one row
// per image holding the label followed by 784 pixel values in row-major
// order. Files ending in .gz are decompressed on the fly.
func LoadCSV(path string, logger golog.Logger) (*datasets.ImageSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	logChecksum(path, logger)

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, zerr := gzip.NewReader(f)
		if zerr != nil {
			return nil, errors.Wrapf(zerr, "ungzip %s", path)
		}
		defer zr.Close()
		r = zr
	}
	set, err := readCSV(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if logger != nil {
		logger.Infow("loaded csv", "path", path, "images", set.Len())
	}
	return set, nil
}

func readCSV(r io.Reader) (*datasets.ImageSet, error) {
	const columns = 1 + ImgSize*ImgSize

	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = columns

	var pixels []uint8
	var labels []int
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row)
		}
		row++
		if row == 1 && strings.EqualFold(record[0], "label") {
			continue
		}
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d label", row)
		}
		if label < 0 || label >= NumClasses {
			return nil, errors.Errorf("row %d label %d outside [0,%d)", row, label, NumClasses)
		}
		labels = append(labels, label)
		for i, field := range record[1:] {
			px, err := strconv.Atoi(field)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d pixel %d", row, i+1)
			}
			if px < 0 || px > 255 {
				return nil, errors.Errorf("row %d pixel %d value %d outside [0,255]", row, i+1, px)
			}
			pixels = append(pixels, uint8(px))
		}
	}
	if len(labels) == 0 {
		return nil, errors.New("no image rows")
	}
	x := tensor.New(tensor.WithShape(len(labels), ImgSize, ImgSize), tensor.WithBacking(pixels))
	return datasets.NewImageSet(x, labels)
}
