package model

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ForwardOptions tunes the forward pass.
type ForwardOptions struct {
	// Unstable skips subtracting each column's largest logit before
	// exponentiating, so large logits overflow to Inf and the column turns into NaN.
	Unstable bool
}

// Forward computes the logits Z = W·X + b and the class probabilities A = softmax(Z).
// X is features x samples; Z and A are classes x samples.
func Forward(x mat.Matrix, p *Params, opts ForwardOptions) (z, a *mat.Dense, err error) {
	if err := checkParams(p); err != nil {
		return nil, nil, err
	}
	_, features := p.Dims()
	rows, cols := x.Dims()
	if rows != features {
		return nil, nil, errors.Wrapf(mat.ErrShape, "model: weights expect %d features, input has %d", features, rows)
	}
	if cols == 0 {
		return nil, nil, errors.New("model: input has no samples")
	}

	z = &mat.Dense{}
	z.Mul(p.W, x)
	z.Apply(func(i, _ int, v float64) float64 {
		return v + p.B.AtVec(i)
	}, z)

	return z, Softmax(z, !opts.Unstable), nil
}

// Predict returns the class probabilities for every column of x.
func Predict(x mat.Matrix, p *Params, opts ForwardOptions) (*mat.Dense, error) {
	_, a, err := Forward(x, p, opts)
	return a, err
}

// Softmax normalizes each column of z into a probability distribution.
func Softmax(z mat.Matrix, stable bool) *mat.Dense {
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		shift := 0.0
		if stable {
			shift = math.Inf(-1)
			for i := 0; i < rows; i++ {
				shift = math.Max(shift, z.At(i, j))
			}
		}
		sum := 0.0
		for i := 0; i < rows; i++ {
			e := math.Exp(z.At(i, j) - shift)
			out.Set(i, j, e)
			sum += e
		}
		inv := 1.0 / sum
		for i := 0; i < rows; i++ {
			out.Set(i, j, out.At(i, j)*inv)
		}
	}
	return out
}
