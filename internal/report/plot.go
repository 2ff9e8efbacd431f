package report

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotLoss saves the per-epoch loss curve to path. The image format follows the extension.
func PlotLoss(history []float64, path string) error {
	if len(history) == 0 {
		return errors.New("report: empty loss history")
	}
	pts := make(plotter.XYs, len(history))
	for i, loss := range history {
		pts[i].X = float64(i)
		pts[i].Y = loss
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "cross-entropy"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "report: loss line")
	}
	p.Add(line, plotter.NewGrid())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "report: create plot dir")
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "report: save plot")
	}
	return nil
}
