package model

import (
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestCrossEntropy(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{
		0.5, 0.1,
		0.5, 0.9,
	})
	y := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	want := -(math.Log(0.5) + math.Log(0.9)) / 2
	test.That(t, CrossEntropy(a, y), test.ShouldAlmostEqual, want, 1e-12)

	zero := mat.NewDense(2, 1, []float64{0, 1})
	target := mat.NewDense(2, 1, []float64{1, 0})
	test.That(t, CrossEntropy(zero, target), test.ShouldAlmostEqual, -math.Log(minProb), 1e-9)
}

func TestArgmaxAndAccuracy(t *testing.T) {
	a := mat.NewDense(3, 4, []float64{
		0.7, 0.1, 0.2, 0.4,
		0.2, 0.8, 0.2, 0.4,
		0.1, 0.1, 0.6, 0.2,
	})
	test.That(t, ArgmaxColumns(a), test.ShouldResemble, []int{0, 1, 2, 0})

	y := mat.NewDense(3, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
	})
	test.That(t, Accuracy(a, y), test.ShouldAlmostEqual, 0.75, 1e-12)
}
