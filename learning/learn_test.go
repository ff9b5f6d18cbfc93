package learning

import (
	"math"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/fashionet/classifier/datasets"
	"github.com/fashionet/classifier/layer/dense"
	"github.com/fashionet/classifier/layer/dropout"
	"github.com/fashionet/classifier/layer/relu"
	"github.com/fashionet/classifier/layer/softmax"
	"github.com/fashionet/classifier/net/feedforward"
)

// blobs builds a trivially separable set: every sample is noise in
// [-0.25, 0.25] with a large bump at its label index.
func blobs(t *testing.T, classes, perClass, dim int, seed int64) *datasets.FeatureSet {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	n := classes * perClass
	data := make([]float32, n*dim)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		label := i % classes
		labels[i] = label
		row := data[i*dim : (i+1)*dim]
		for j := range row {
			row[j] = float32(r.Float64()*0.5 - 0.25)
		}
		row[label] += 3
	}
	x := tensor.New(tensor.WithShape(n, dim), tensor.WithBacking(data))
	set, err := datasets.NewFeatureSet(x, labels)
	require.NoError(t, err)
	return set
}

func newTestHead(t *testing.T, in, hidden, classes int) *feedforward.FeedforwardNetwork {
	t.Helper()
	var net feedforward.FeedforwardNetwork
	net.MustNewLayer("fc1", dense.MustNew(in, hidden))
	net.MustNewLayer("fc1_relu", relu.MustNew(hidden))
	net.MustNewLayer("drop", dropout.MustNew(hidden, 0.1, 11))
	net.MustNewLayer("fc2", dense.MustNew(hidden, classes))
	net.MustNewLayer("probs", softmax.MustNew(classes))
	return &net
}

func TestTrainingSeparableSet(t *testing.T) {
	const classes, dim = 4, 8
	train := blobs(t, classes, 16, dim, 1)
	val := blobs(t, classes, 4, dim, 2)
	net := newTestHead(t, dim, 16, classes)

	logger, observed := golog.NewObservedTestLogger(t)

	var h HyperParameters
	h.Epochs = 80
	h.BatchSize = 16
	h.LearningRate = 0.01
	h.Shuffle = true
	h.Seed = 7
	h.SetLogger(logger)

	hist, err := h.Training(net, train, val)
	require.NoError(t, err)
	require.Equal(t, 80, hist.Epochs())

	last := hist.Epochs() - 1
	require.GreaterOrEqual(t, hist.Acc[last], 0.95, "train accuracy")
	require.GreaterOrEqual(t, hist.ValAcc[last], 0.95, "validation accuracy")
	require.Less(t, hist.Loss[last], hist.Loss[0]/5, "loss should collapse")
	require.Equal(t, 80, observed.FilterMessage("epoch").Len())
}

func TestTrainingSGDMomentum(t *testing.T) {
	const classes, dim = 3, 6
	train := blobs(t, classes, 12, dim, 3)
	val := blobs(t, classes, 4, dim, 4)
	net := newTestHead(t, dim, 12, classes)

	var h HyperParameters
	h.Epochs = 60
	h.BatchSize = 12
	h.Optimizer = SGD
	h.LearningRate = 0.05
	h.Momentum = 0.9
	h.WeightInit = HeNormal
	h.Shuffle = true
	h.Seed = 5

	hist, err := h.Training(net, train, val)
	require.NoError(t, err)
	require.GreaterOrEqual(t, hist.Acc[hist.Epochs()-1], 0.95)
}

func TestTrainingIsDeterministicUnderSeed(t *testing.T) {
	run := func() []float64 {
		train := blobs(t, 3, 8, 6, 21)
		val := blobs(t, 3, 2, 6, 22)
		net := newTestHead(t, 6, 8, 3)
		var h HyperParameters
		h.Epochs = 5
		h.BatchSize = 8
		h.Shuffle = true
		h.Seed = 13
		hist, err := h.Training(net, train, val)
		require.NoError(t, err)
		return hist.Loss
	}
	require.Equal(t, run(), run())
}

func TestTrainingReshufflesTheSetInPlace(t *testing.T) {
	const classes, dim = 3, 6
	train := blobs(t, classes, 10, dim, 31)
	val := blobs(t, classes, 2, dim, 32)
	before := append([]float32(nil), train.Raw()...)
	labels := append([]int(nil), train.Y...)

	var h HyperParameters
	h.Epochs = 1
	h.BatchSize = 10
	h.Shuffle = true
	h.Seed = 9
	_, err := h.Training(newTestHead(t, dim, 8, classes), train, val)
	require.NoError(t, err)

	require.NotEqual(t, before, train.Raw(), "pass should reorder the rows")
	require.ElementsMatch(t, labels, train.Y)
	// Every row carries a +3 bump at its label index, so the argmax shows
	// whether labels followed their rows through the shuffle.
	for i := 0; i < train.Len(); i++ {
		row := train.Row(i)
		best := 0
		for j, v := range row[1:] {
			if v > row[best] {
				best = j + 1
			}
		}
		require.Equal(t, train.Y[i], best, "row %d", i)
	}
}

func TestTrainingWithoutShuffleKeepsOrder(t *testing.T) {
	const classes, dim = 3, 6
	train := blobs(t, classes, 10, dim, 31)
	val := blobs(t, classes, 2, dim, 32)
	before := append([]float32(nil), train.Raw()...)
	labels := append([]int(nil), train.Y...)

	var h HyperParameters
	h.Epochs = 2
	h.BatchSize = 10
	_, err := h.Training(newTestHead(t, dim, 8, classes), train, val)
	require.NoError(t, err)

	require.Equal(t, before, train.Raw())
	require.Equal(t, labels, train.Y)
}

func TestTrainingRejectsBadInputs(t *testing.T) {
	train := blobs(t, 2, 4, 4, 1)
	val := blobs(t, 2, 2, 4, 2)

	var h HyperParameters
	net := newTestHead(t, 4, 4, 2)
	h.Optimizer = "adagrad"
	_, err := h.Training(net, train, val)
	require.Error(t, err)
	require.Contains(t, err.Error(), "adagrad")

	h = HyperParameters{}
	_, err = h.Training(net, nil, val)
	require.Error(t, err)

	wrong := blobs(t, 2, 4, 6, 1)
	_, err = h.Training(net, wrong, val)
	require.Error(t, err)

	var frozen feedforward.FeedforwardNetwork
	frozen.MustNewLayer("relu", relu.MustNew(4))
	_, err = h.Training(&frozen, train, val)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trainable")
}

func TestEvaluateHandComputed(t *testing.T) {
	var net feedforward.FeedforwardNetwork
	net.MustNewLayer("fc", dense.MustNew(2, 2))
	net.MustNewLayer("probs", softmax.MustNew(2))
	fc := net.Instance(0).(*dense.Dense)
	copy(fc.Params()[0].Value, []float32{1, 0, 0, 1})

	x := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{2, 0, 0, 2}))
	set, err := datasets.NewFeatureSet(x, []int{0, 0})
	require.NoError(t, err)

	loss, acc, err := Evaluate(&net, set, 2)
	require.NoError(t, err)
	// softmax([2,0]) = [0.8808, 0.1192]: one hit, one miss.
	p := math.Exp(2) / (math.Exp(2) + 1)
	want := (-math.Log(p) - math.Log(1-p)) / 2
	require.InDelta(t, want, loss, 1e-4)
	require.InDelta(t, 0.5, acc, 0)
}

func TestCrossEntropyGradMatchesNumerical(t *testing.T) {
	const batch, classes = 2, 3
	r := rand.New(rand.NewSource(8))
	logits := make([]float64, batch*classes)
	for i := range logits {
		logits[i] = r.NormFloat64()
	}
	labels := []int{2, 0}

	softmaxRows := func(z []float64) []float64 {
		out := make([]float64, len(z))
		for i := 0; i < batch; i++ {
			row := z[i*classes : (i+1)*classes]
			max := row[0]
			for _, v := range row[1:] {
				if v > max {
					max = v
				}
			}
			var sum float64
			for j, v := range row {
				out[i*classes+j] = math.Exp(v - max)
				sum += out[i*classes+j]
			}
			for j := range row {
				out[i*classes+j] /= sum
			}
		}
		return out
	}
	meanCE := func(z []float64) float64 {
		probs := softmaxRows(z)
		var s float64
		for i, label := range labels {
			s -= math.Log(probs[i*classes+label])
		}
		return s / batch
	}

	probs64 := softmaxRows(logits)
	probs := make([]float32, len(probs64))
	for i, v := range probs64 {
		probs[i] = float32(v)
	}
	grad, err := CrossEntropyGrad(probs, labels, classes)
	require.NoError(t, err)

	const eps = 1e-5
	for k := range logits {
		orig := logits[k]
		logits[k] = orig + eps
		up := meanCE(logits)
		logits[k] = orig - eps
		down := meanCE(logits)
		logits[k] = orig
		require.InDelta(t, (up-down)/(2*eps), float64(grad[k]), 1e-4, "dlogits[%d]", k)
	}
}

func TestCrossEntropyRejectsBadShapes(t *testing.T) {
	_, err := CrossEntropy([]float32{0.5, 0.5}, []int{0, 1}, 2)
	require.Error(t, err)
	_, err = CrossEntropy([]float32{0.5, 0.5}, []int{2}, 2)
	require.Error(t, err)
	_, err = CrossEntropy(nil, nil, 0)
	require.Error(t, err)
}

func TestCrossEntropyGradRejectsBadShapes(t *testing.T) {
	_, err := CrossEntropyGrad([]float32{0.5, 0.5}, []int{0, 1}, 2)
	require.Error(t, err)
	_, err = CrossEntropyGrad([]float32{0.5, 0.5, 0.5, 0.5}, []int{0, 2}, 2)
	require.Error(t, err)
}

func TestHistorySaveCSV(t *testing.T) {
	var hist History
	hist.Append(1.5, 0.4, 1.6, 0.35)
	hist.Append(0.9, 0.7, 1.1, 0.6)

	path := t.TempDir() + "/history.csv"
	require.NoError(t, hist.SaveCSV(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "epoch,loss,accuracy,val_loss,val_accuracy", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "1,1.5,0.4,"))
	require.True(t, strings.HasPrefix(lines[2], "2,0.9,0.7,"))
}
