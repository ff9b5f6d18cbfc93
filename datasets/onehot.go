package datasets

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// OneHot encodes labels into a float32 tensor of shape (len(y), classes)
// with a single 1 per row.
func OneHot(y []int, classes int) (*tensor.Dense, error) {
	if classes <= 0 {
		return nil, errors.Errorf("onehot: non-positive class count %d", classes)
	}
	if len(y) == 0 {
		return nil, errors.New("onehot: no labels")
	}
	data := make([]float32, len(y)*classes)
	for i, label := range y {
		if label < 0 || label >= classes {
			return nil, errors.Errorf("onehot: label %d at row %d outside [0,%d)", label, i, classes)
		}
		data[i*classes+label] = 1
	}
	return tensor.New(tensor.WithShape(len(y), classes), tensor.WithBacking(data)), nil
}
