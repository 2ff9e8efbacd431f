package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MaxPixel is the largest raw intensity a feature column may hold.
const MaxPixel = 255

// LoadOptions describes the layout of a digit CSV.
type LoadOptions struct {
	IDColumn      string
	LabelColumn   string
	NumClasses    int
	RequireLabels bool
}

func (o *LoadOptions) setDefaults() {
	if o.IDColumn == "" {
		o.IDColumn = "id"
	}
	if o.LabelColumn == "" {
		o.LabelColumn = "label"
	}
	if o.NumClasses <= 0 {
		o.NumClasses = 10
	}
}

// Dataset is a sample-major view of a digit CSV.
type Dataset struct {
	IDs          []string
	FeatureNames []string
	Features     [][]float64
	Labels       []int
	HasLabels    bool
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	return len(d.FeatureNames)
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	ds, err := Load(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return ds, nil
}

// Load parses a CSV with a header row. The ID column is optional; when it is
// missing samples are numbered from 1. Every column other than the ID and
// label columns is a pixel feature in [0, MaxPixel].
func Load(r io.Reader, opts LoadOptions) (*Dataset, error) {
	opts.setDefaults()

	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset: missing header")
	}
	if err != nil {
		return nil, errors.Wrap(err, "dataset: read header")
	}

	idCol, labelCol := -1, -1
	var featureCols []int
	ds := &Dataset{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch name {
		case opts.IDColumn:
			idCol = i
		case opts.LabelColumn:
			labelCol = i
		default:
			featureCols = append(featureCols, i)
			ds.FeatureNames = append(ds.FeatureNames, name)
		}
	}
	if len(featureCols) == 0 {
		return nil, errors.New("dataset: no feature columns")
	}
	if opts.RequireLabels && labelCol < 0 {
		return nil, errors.Errorf("dataset: label column %q not found", opts.LabelColumn)
	}
	ds.HasLabels = labelCol >= 0

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d", line)
		}

		features := make([]float64, len(featureCols))
		for k, col := range featureCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "dataset: line %d: column %s", line, ds.FeatureNames[k])
			}
			if math.IsNaN(v) || v < 0 || v > MaxPixel {
				return nil, errors.Errorf("dataset: line %d: column %s: value %v outside [0, %d]", line, ds.FeatureNames[k], v, MaxPixel)
			}
			features[k] = v
		}
		ds.Features = append(ds.Features, features)

		if idCol >= 0 {
			ds.IDs = append(ds.IDs, strings.TrimSpace(record[idCol]))
		} else {
			ds.IDs = append(ds.IDs, strconv.Itoa(len(ds.Features)))
		}

		if labelCol >= 0 {
			label, err := strconv.Atoi(strings.TrimSpace(record[labelCol]))
			if err != nil {
				return nil, errors.Wrapf(err, "dataset: line %d: label", line)
			}
			if label < 0 || label >= opts.NumClasses {
				return nil, errors.Errorf("dataset: line %d: label %d outside [0, %d)", line, label, opts.NumClasses)
			}
			ds.Labels = append(ds.Labels, label)
		}
	}
	if ds.Len() == 0 {
		return nil, errors.New("dataset: no samples")
	}
	return ds, nil
}

// Select reorders the feature columns to match names, so a file whose pixel
// columns appear in another order lines up with the weights trained on names.
// Every name must be present and no extra feature columns are allowed.
func (d *Dataset) Select(names []string) error {
	index := make(map[string]int, len(d.FeatureNames))
	for i, name := range d.FeatureNames {
		index[name] = i
	}
	if len(names) != len(index) {
		return errors.Errorf("dataset: has %d feature columns, want %d", len(index), len(names))
	}
	order := make([]int, len(names))
	for i, name := range names {
		src, ok := index[name]
		if !ok {
			return errors.Errorf("dataset: missing feature column %q", name)
		}
		order[i] = src
	}
	for r, row := range d.Features {
		picked := make([]float64, len(order))
		for i, src := range order {
			picked[i] = row[src]
		}
		d.Features[r] = picked
	}
	d.FeatureNames = append([]string(nil), names...)
	return nil
}

// Normalize divides every feature by scale.
func (d *Dataset) Normalize(scale float64) error {
	if scale <= 0 {
		return errors.Errorf("dataset: scale must be > 0 (got %v)", scale)
	}
	inv := 1 / scale
	for _, row := range d.Features {
		for i := range row {
			row[i] *= inv
		}
	}
	return nil
}

// Matrix returns the features as a features x samples matrix.
func (d *Dataset) Matrix() *mat.Dense {
	m := mat.NewDense(d.NumFeatures(), d.Len(), nil)
	for j, row := range d.Features {
		m.SetCol(j, row)
	}
	return m
}

// OneHot returns the labels as a numClasses x samples indicator matrix.
func (d *Dataset) OneHot(numClasses int) (*mat.Dense, error) {
	if !d.HasLabels {
		return nil, errors.New("dataset: no labels to encode")
	}
	return OneHot(d.Labels, numClasses)
}

// OneHot encodes labels as columns with a single 1 in the label's row.
func OneHot(labels []int, numClasses int) (*mat.Dense, error) {
	if numClasses < 1 {
		return nil, errors.Errorf("dataset: num classes must be >= 1 (got %d)", numClasses)
	}
	if len(labels) == 0 {
		return nil, errors.New("dataset: no labels to encode")
	}
	m := mat.NewDense(numClasses, len(labels), nil)
	for j, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, errors.Errorf("dataset: label %d outside [0, %d)", label, numClasses)
		}
		m.Set(label, j, 1)
	}
	return m, nil
}
