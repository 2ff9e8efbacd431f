package metrics

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Window accumulates per-epoch timing and loss between log points.
type Window struct {
	samples int
	compute time.Duration
	epochs  int
	losses  []float64
}

// Record adds one epoch's measurement to the window.
func (w *Window) Record(samples int, computeTime time.Duration, loss float64) {
	w.samples += samples
	w.compute += computeTime
	w.epochs++
	w.losses = append(w.losses, loss)
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{}
	if w.compute > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}
	if w.epochs > 0 {
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.epochs)
		snap.LastLoss = w.losses[len(w.losses)-1]
	}
	if mean, err := stats.Mean(w.losses); err == nil {
		snap.MeanLoss = mean
	}

	w.samples = 0
	w.compute = 0
	w.epochs = 0
	w.losses = w.losses[:0]
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	SamplesPerSec float64
	AvgComputeMS  float64
	MeanLoss      float64
	LastLoss      float64
}
