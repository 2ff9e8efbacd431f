package model

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BiasGradient selects how the bias gradient is reduced from dZ.
type BiasGradient int

const (
	// BiasPerClass sums dZ along each class row, giving every class its own gradient.
	BiasPerClass BiasGradient = iota
	// BiasTied sums every entry of dZ into one scalar shared by all classes.
	// Softmax and one-hot columns both sum to one, so this scalar is zero up to rounding.
	BiasTied
)

func (g BiasGradient) String() string {
	switch g {
	case BiasPerClass:
		return "per_class"
	case BiasTied:
		return "tied"
	default:
		return "unknown"
	}
}

// ParseBiasGradient maps a config value onto a BiasGradient.
func ParseBiasGradient(s string) (BiasGradient, error) {
	switch s {
	case "", "per_class":
		return BiasPerClass, nil
	case "tied":
		return BiasTied, nil
	default:
		return 0, errors.Errorf("model: unknown bias gradient %q", s)
	}
}

// Gradients are the averaged derivatives of the cross-entropy loss.
type Gradients struct {
	DW *mat.Dense
	DB *mat.VecDense
}

// Gradient computes dW = dZ·Xᵀ/m and db from dZ = A - Y.
func Gradient(x, y mat.Matrix, a *mat.Dense, mode BiasGradient) (*Gradients, error) {
	k, m := a.Dims()
	yk, ym := y.Dims()
	if yk != k || ym != m {
		return nil, errors.Wrapf(mat.ErrShape, "model: targets are %dx%d, probabilities are %dx%d", yk, ym, k, m)
	}
	if _, xm := x.Dims(); xm != m {
		return nil, errors.Wrapf(mat.ErrShape, "model: input has %d samples, probabilities have %d", xm, m)
	}

	var dz mat.Dense
	dz.Sub(a, y)

	scale := 1 / float64(m)
	dw := &mat.Dense{}
	dw.Mul(&dz, x.T())
	dw.Scale(scale, dw)

	db := mat.NewVecDense(k, nil)
	switch mode {
	case BiasPerClass:
		for i := 0; i < k; i++ {
			db.SetVec(i, mat.Sum(dz.RowView(i))*scale)
		}
	case BiasTied:
		total := mat.Sum(&dz) * scale
		for i := 0; i < k; i++ {
			db.SetVec(i, total)
		}
	default:
		return nil, errors.Errorf("model: unknown bias gradient %d", mode)
	}
	return &Gradients{DW: dw, DB: db}, nil
}

// Backward returns the parameters after one gradient-descent step of size lr.
// p is left untouched.
func Backward(x, y mat.Matrix, a *mat.Dense, p *Params, lr float64, mode BiasGradient) (*Params, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	k, features := p.Dims()
	if ak, _ := a.Dims(); ak != k {
		return nil, errors.Wrapf(mat.ErrShape, "model: probabilities have %d classes, weights have %d", ak, k)
	}
	if xr, _ := x.Dims(); xr != features {
		return nil, errors.Wrapf(mat.ErrShape, "model: weights expect %d features, input has %d", features, xr)
	}

	grads, err := Gradient(x, y, a, mode)
	if err != nil {
		return nil, err
	}

	w := mat.NewDense(k, features, nil)
	w.Scale(-lr, grads.DW)
	w.Add(p.W, w)

	b := mat.NewVecDense(k, nil)
	b.AddScaledVec(p.B, -lr, grads.DB)

	return &Params{W: w, B: b}, nil
}
