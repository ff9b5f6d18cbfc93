package fashionmnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
)

// IDX magic numbers: unsigned bytes with 3 dimensions (images) or 1
// dimension (labels).
const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
)

// LoadIDX reads a gzipped IDX image archive and its label archive.
func LoadIDX(imgPath, lblPath string, logger golog.Logger) (*datasets.ImageSet, error) {
	imgData, err := ungzipFile(imgPath)
	if err != nil {
		return nil, err
	}
	logChecksum(imgPath, logger)
	lblData, err := ungzipFile(lblPath)
	if err != nil {
		return nil, err
	}
	logChecksum(lblPath, logger)

	pixels, n, h, w, err := parseIDXImages(imgData)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", imgPath)
	}
	labels, err := parseIDXLabels(lblData)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", lblPath)
	}
	if len(labels) != n {
		return nil, errors.Errorf("%s has %d labels for %d images", lblPath, len(labels), n)
	}
	for i, label := range labels {
		if label >= NumClasses {
			return nil, errors.Errorf("%s label %d at %d outside [0,%d)", lblPath, label, i, NumClasses)
		}
	}
	if logger != nil {
		logger.Infow("loaded idx", "images", imgPath, "labels", lblPath, "count", n)
	}
	y := make([]int, n)
	for i, label := range labels {
		y[i] = int(label)
	}
	x := tensor.New(tensor.WithShape(n, h, w), tensor.WithBacking(pixels))
	return datasets.NewImageSet(x, y)
}

func ungzipFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "ungzip %s", path)
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return buf.Bytes(), nil
}

func parseIDXImages(data []byte) (pixels []uint8, n, h, w int, err error) {
	if len(data) < 16 {
		return nil, 0, 0, 0, errors.Errorf("image header truncated at %d bytes", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != idxImagesMagic {
		return nil, 0, 0, 0, errors.Errorf("bad image magic %#08x", magic)
	}
	n = int(binary.BigEndian.Uint32(data[4:]))
	h = int(binary.BigEndian.Uint32(data[8:]))
	w = int(binary.BigEndian.Uint32(data[12:]))
	if n <= 0 || h != ImgSize || w != ImgSize {
		return nil, 0, 0, 0, errors.Errorf("unexpected image geometry %dx%dx%d", n, h, w)
	}
	if len(data) != 16+n*h*w {
		return nil, 0, 0, 0, errors.Errorf("image payload is %d bytes, want %d", len(data)-16, n*h*w)
	}
	return data[16:], n, h, w, nil
}

func parseIDXLabels(data []byte) ([]uint8, error) {
	if len(data) < 8 {
		return nil, errors.Errorf("label header truncated at %d bytes", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != idxLabelsMagic {
		return nil, errors.Errorf("bad label magic %#08x", magic)
	}
	n := int(binary.BigEndian.Uint32(data[4:]))
	if n <= 0 || len(data) != 8+n {
		return nil, errors.Errorf("label payload is %d bytes, want %d", len(data)-8, n)
	}
	return data[8:], nil
}
