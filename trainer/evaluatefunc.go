package trainer

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/fashionet/classifier/net/feedforward"
)

// NewEvaluateFunc returns an after-epoch hook for head training: whenever
// the validation accuracy improves on *succ it raises *succ and checkpoints
// the head weights to *dstmodel. A nil succ checkpoints every epoch; an
// empty dstmodel only tracks the best accuracy.
func NewEvaluateFunc(net *feedforward.FeedforwardNetwork, succ *float64, dstmodel *string,
	logger golog.Logger) func(epoch int, valAcc float64) error {

	return func(epoch int, valAcc float64) error {
		if succ != nil && valAcc <= *succ {
			return nil
		}
		if succ != nil {
			*succ = valAcc
		}
		if dstmodel == nil || *dstmodel == "" {
			return nil
		}
		if err := net.WriteCompressedWeightsToFile(*dstmodel); err != nil {
			return errors.Wrap(err, "checkpoint head weights")
		}
		if logger != nil {
			logger.Debugw("checkpointed head", "epoch", epoch, "val_accuracy", valAcc, "path", *dstmodel)
		}
		return nil
	}
}
