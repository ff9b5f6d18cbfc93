package metrics

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Report holds the per-class quality summary of a classification run.
type Report struct {
	Classes   []string
	Precision []float64
	Recall    []float64
	F1        []float64
	Support   []int
	Accuracy  float64
}

// NewReport scores the predictions against the truth over exactly the named
// classes, in their order.
func NewReport(pred, truth []int, names []string) (*Report, error) {
	if len(names) == 0 {
		return nil, errors.New("metrics: no class names")
	}
	m, err := ConfusionMatrix(pred, truth, len(names))
	if err != nil {
		return nil, err
	}
	r := &Report{
		Classes:   append([]string(nil), names...),
		Precision: make([]float64, len(names)),
		Recall:    make([]float64, len(names)),
		F1:        make([]float64, len(names)),
		Support:   make([]int, len(names)),
	}
	for c := range names {
		tp := m[c][c]
		var fp, fn int
		for o := range names {
			if o == c {
				continue
			}
			fp += m[o][c]
			fn += m[c][o]
		}
		r.Support[c] = tp + fn
		r.Precision[c] = ratio(tp, tp+fp)
		r.Recall[c] = ratio(tp, tp+fn)
		if p, rc := r.Precision[c], r.Recall[c]; p+rc > 0 {
			r.F1[c] = 2 * p * rc / (p + rc)
		}
	}
	r.Accuracy, err = Accuracy(pred, truth)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ratio guards the zero-support divisions that an absent class produces.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Total returns the number of scored samples.
func (r *Report) Total() int {
	total := 0
	for _, s := range r.Support {
		total += s
	}
	return total
}

// String renders the report in the familiar per-class table layout with
// macro and support-weighted averages.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, name := range r.Classes {
		if len(name) > width {
			width = len(name)
		}
	}

	weights := make([]float64, len(r.Support))
	for i, s := range r.Support {
		weights[i] = float64(s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, name := range r.Classes {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, name, r.Precision[i], r.Recall[i], r.F1[i], r.Support[i])
	}
	total := r.Total()
	fmt.Fprintf(&b, "\n%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, total)
	fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, "macro avg",
		stat.Mean(r.Precision, nil), stat.Mean(r.Recall, nil), stat.Mean(r.F1, nil), total)
	fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, "weighted avg",
		stat.Mean(r.Precision, weights), stat.Mean(r.Recall, weights), stat.Mean(r.F1, weights), total)
	return b.String()
}

// FormatConfusionMatrix renders the matrix with class names on the rows and
// predicted classes in row-major order across the columns.
func FormatConfusionMatrix(m [][]int, names []string) string {
	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}
	cell := 6
	var b strings.Builder
	fmt.Fprintf(&b, "%*s", width, "")
	for c := range names {
		fmt.Fprintf(&b, " %*d", cell, c)
	}
	b.WriteByte('\n')
	for i, row := range m {
		fmt.Fprintf(&b, "%*s", width, names[i])
		for _, v := range row {
			fmt.Fprintf(&b, " %*d", cell, v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
