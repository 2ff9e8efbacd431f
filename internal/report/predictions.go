// Package report renders training and prediction output.
package report

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const probDigits = 4

// WritePredictions writes one row per column of probs (classes x samples):
// the sample identifier followed by every class probability to 4 decimals.
func WritePredictions(w io.Writer, ids []string, probs mat.Matrix) error {
	classes, samples := probs.Dims()
	if len(ids) != samples {
		return errors.Wrapf(mat.ErrShape, "report: %d ids for %d samples", len(ids), samples)
	}

	cw := csv.NewWriter(w)
	record := make([]string, classes+1)
	record[0] = "id"
	for k := 0; k < classes; k++ {
		record[k+1] = strconv.Itoa(k)
	}
	if err := cw.Write(record); err != nil {
		return errors.Wrap(err, "report: write header")
	}
	for j := 0; j < samples; j++ {
		record[0] = ids[j]
		for k := 0; k < classes; k++ {
			record[k+1] = formatProb(probs.At(k, j))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "report: write row %d", j)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "report: flush")
}

// WritePredictionsFile creates path and writes the predictions into it.
func WritePredictionsFile(path string, ids []string, probs mat.Matrix) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "report: create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "report: create predictions")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "report: close predictions")
		}
	}()
	return WritePredictions(f, ids, probs)
}

func formatProb(p float64) string {
	scale := math.Pow(10, probDigits)
	return strconv.FormatFloat(math.Round(p*scale)/scale, 'f', probDigits, 64)
}
