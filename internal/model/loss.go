package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const minProb = 1e-9

// CrossEntropy is the mean negative log-likelihood of the one-hot targets y under a.
func CrossEntropy(a, y mat.Matrix) float64 {
	rows, cols := a.Dims()
	if cols == 0 {
		return 0
	}
	total := 0.0
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if t := y.At(i, j); t != 0 {
				total -= t * math.Log(math.Max(a.At(i, j), minProb))
			}
		}
	}
	return total / float64(cols)
}

// ArgmaxColumns returns the row index of the largest entry of every column.
// Ties resolve to the lowest row.
func ArgmaxColumns(m mat.Matrix) []int {
	rows, cols := m.Dims()
	out := make([]int, cols)
	for j := 0; j < cols; j++ {
		best := 0
		for i := 1; i < rows; i++ {
			if m.At(i, j) > m.At(best, j) {
				best = i
			}
		}
		out[j] = best
	}
	return out
}

// Accuracy is the fraction of columns whose argmax in a matches the argmax in y.
func Accuracy(a, y mat.Matrix) float64 {
	predicted := ArgmaxColumns(a)
	target := ArgmaxColumns(y)
	if len(predicted) == 0 {
		return 0
	}
	correct := 0
	for i := range predicted {
		if predicted[i] == target[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predicted))
}
