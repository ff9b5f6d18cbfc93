package learning

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// History holds the four per-epoch metric series collected while training.
type History struct {
	Loss    []float64
	Acc     []float64
	ValLoss []float64
	ValAcc  []float64
}

// Append records the metrics of one epoch.
func (h *History) Append(loss, acc, valLoss, valAcc float64) {
	h.Loss = append(h.Loss, loss)
	h.Acc = append(h.Acc, acc)
	h.ValLoss = append(h.ValLoss, valLoss)
	h.ValAcc = append(h.ValAcc, valAcc)
}

// Epochs returns the number of recorded epochs.
func (h *History) Epochs() int {
	return len(h.Loss)
}

// SaveCSV writes the series to path with one row per epoch.
func (h *History) SaveCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"epoch", "loss", "accuracy", "val_loss", "val_accuracy"}); err != nil {
		return errors.Wrap(err, "write header")
	}
	for i := range h.Loss {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(h.Loss[i], 'g', -1, 64),
			strconv.FormatFloat(h.Acc[i], 'g', -1, 64),
			strconv.FormatFloat(h.ValLoss[i], 'g', -1, 64),
			strconv.FormatFloat(h.ValAcc[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "write epoch %d", i+1)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "flush %s", path)
}
