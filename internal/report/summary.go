package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

// ClassStats counts how often one class was predicted correctly.
type ClassStats struct {
	Class   int
	Support int
	Correct int
}

// Recall is Correct/Support, or 0 for a class with no samples.
func (s ClassStats) Recall() float64 {
	if s.Support == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Support)
}

// PerClass tallies predictions against targets for classes [0, k).
func PerClass(predicted, target []int, k int) ([]ClassStats, error) {
	if len(predicted) != len(target) {
		return nil, errors.Errorf("report: %d predictions for %d targets", len(predicted), len(target))
	}
	out := make([]ClassStats, k)
	for i := range out {
		out[i].Class = i
	}
	for i, t := range target {
		if t < 0 || t >= k {
			return nil, errors.Errorf("report: target %d outside [0, %d)", t, k)
		}
		out[t].Support++
		if predicted[i] == t {
			out[t].Correct++
		}
	}
	return out, nil
}

// ClassSummary renders a per-class table plus an overall accuracy footer.
func ClassSummary(w io.Writer, predicted, target []int, k int) error {
	rows, err := PerClass(predicted, target, k)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"class", "support", "correct", "recall"})
	correct := 0
	for _, r := range rows {
		correct += r.Correct
		tw.AppendRow(table.Row{r.Class, r.Support, r.Correct, fmt.Sprintf("%.4f", r.Recall())})
	}
	overall := 0.0
	if len(target) > 0 {
		overall = float64(correct) / float64(len(target))
	}
	tw.AppendFooter(table.Row{"total", len(target), correct, fmt.Sprintf("%.4f", overall)})
	tw.Render()
	return nil
}
