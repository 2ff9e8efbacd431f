// Package model implements a single-layer softmax regression classifier.
package model

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Params holds the weights (classes x features) and bias (classes) of the classifier.
type Params struct {
	W *mat.Dense
	B *mat.VecDense
}

// Dims returns the number of classes and features the parameters map between.
func (p *Params) Dims() (classes, features int) {
	return p.W.Dims()
}

// clone returns a deep copy of p.
func (p *Params) clone() *Params {
	return &Params{
		W: mat.DenseCopyOf(p.W),
		B: mat.VecDenseCopyOf(p.B),
	}
}

// Initialize draws every weight and bias independently from [0, 1).
func Initialize(numFeatures, numClasses int, rng *rand.Rand) (*Params, error) {
	if numFeatures < 1 {
		return nil, errors.Errorf("model: num features must be >= 1 (got %d)", numFeatures)
	}
	if numClasses < 1 {
		return nil, errors.Errorf("model: num classes must be >= 1 (got %d)", numClasses)
	}
	if rng == nil {
		return nil, errors.New("model: nil random source")
	}
	weights := make([]float64, numClasses*numFeatures)
	for i := range weights {
		weights[i] = rng.Float64()
	}
	bias := make([]float64, numClasses)
	for i := range bias {
		bias[i] = rng.Float64()
	}
	return &Params{
		W: mat.NewDense(numClasses, numFeatures, weights),
		B: mat.NewVecDense(numClasses, bias),
	}, nil
}

func checkParams(p *Params) error {
	if p == nil || p.W == nil || p.B == nil {
		return errors.New("model: params not initialized")
	}
	k, _ := p.Dims()
	if p.B.Len() != k {
		return errors.Wrapf(mat.ErrShape, "model: bias has %d entries, weights have %d rows", p.B.Len(), k)
	}
	return nil
}
