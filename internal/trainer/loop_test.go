package trainer

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"softmax-digits/internal/model"
)

// separable returns four points split by the line y = x through the origin.
func separable() (x, y *mat.Dense) {
	x = mat.NewDense(2, 4, []float64{
		1.0, 0.9, 0.0, 0.1,
		0.0, 0.1, 1.0, 0.9,
	})
	y = mat.NewDense(2, 4, []float64{
		1, 1, 0, 0,
		0, 0, 1, 1,
	})
	return x, y
}

func TestRunConvergesOnSeparableData(t *testing.T) {
	x, y := separable()
	for seed := int64(1); seed <= 5; seed++ {
		tr, err := New(x, y, Options{
			LearningRate: 0.1,
			Epochs:       500,
			Seed:         seed,
		}, zaptest.NewLogger(t))
		test.That(t, err, test.ShouldBeNil)

		res, err := tr.Run(context.Background())
		test.That(t, err, test.ShouldBeNil)

		probs, err := model.Predict(x, res.Params, model.ForwardOptions{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, model.Accuracy(probs, y), test.ShouldBeGreaterThanOrEqualTo, 0.95)

		test.That(t, res.LossHistory, test.ShouldHaveLength, 500)
		test.That(t, res.LossHistory[499], test.ShouldBeLessThan, res.LossHistory[0])
	}
}

func TestRunCheckpointsEveryFiftyEpochs(t *testing.T) {
	x, y := separable()
	core, logs := observer.New(zapcore.InfoLevel)
	tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 120, Seed: 2}, zap.New(core))
	test.That(t, err, test.ShouldBeNil)

	res, err := tr.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)

	epochs := make([]int, 0, len(res.Checkpoints))
	for _, cp := range res.Checkpoints {
		epochs = append(epochs, cp.Epoch)
		test.That(t, cp.Accuracy, test.ShouldBeGreaterThanOrEqualTo, 0.0)
		test.That(t, cp.Accuracy, test.ShouldBeLessThanOrEqualTo, 1.0)
		test.That(t, cp.Loss, test.ShouldEqual, res.LossHistory[cp.Epoch])
	}
	test.That(t, epochs, test.ShouldResemble, []int{0, 50, 100})
	lines := logs.FilterMessage("training").All()
	test.That(t, lines, test.ShouldHaveLength, 3)
	test.That(t, lines[1].ContextMap()["last_loss"], test.ShouldEqual, res.LossHistory[50])
}

func TestRunCustomLogEvery(t *testing.T) {
	x, y := separable()
	tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 10, LogEvery: 4}, nil)
	test.That(t, err, test.ShouldBeNil)
	res, err := tr.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Checkpoints, test.ShouldHaveLength, 3)
	test.That(t, res.Checkpoints[2].Epoch, test.ShouldEqual, 8)
}

func TestRunZeroEpochsReturnsInitialParams(t *testing.T) {
	x, y := separable()
	for i := 0; i < 2; i++ {
		tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 0, Seed: 7}, nil)
		test.That(t, err, test.ShouldBeNil)
		res, err := tr.Run(context.Background())
		test.That(t, err, test.ShouldBeNil)

		want, err := model.Initialize(2, 2, rand.New(rand.NewSource(7)))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mat.Equal(res.Params.W, want.W), test.ShouldBeTrue)
		test.That(t, mat.Equal(res.Params.B, want.B), test.ShouldBeTrue)
		test.That(t, res.LossHistory, test.ShouldBeEmpty)
		test.That(t, res.Checkpoints, test.ShouldBeEmpty)
	}
}

func TestRunTiedBiasLeavesBiasFixed(t *testing.T) {
	x, y := separable()
	tr, err := New(x, y, Options{
		LearningRate: 0.1,
		Epochs:       50,
		Seed:         3,
		BiasGradient: model.BiasTied,
	}, nil)
	test.That(t, err, test.ShouldBeNil)
	res, err := tr.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)

	initial, err := model.Initialize(2, 2, rand.New(rand.NewSource(3)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(res.Params.B, initial.B, 1e-9), test.ShouldBeTrue)
	test.That(t, mat.EqualApprox(res.Params.W, initial.W, 1e-3), test.ShouldBeFalse)
}

func TestRunUnstableSoftmaxPropagatesNaN(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{
		1e6, 0,
		0, 1e6,
	})
	y := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	core, logs := observer.New(zapcore.WarnLevel)
	tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 3, Seed: 1, UnstableSoftmax: true}, zap.New(core))
	test.That(t, err, test.ShouldBeNil)

	res, err := tr.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.IsNaN(res.LossHistory[0]), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("loss is not finite").Len(), test.ShouldEqual, 1)
}

func TestRunDefaultOptionsKeepLossFinite(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{
		1e6, 0,
		0, 1e6,
	})
	y := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 3, Seed: 1}, nil)
	test.That(t, err, test.ShouldBeNil)

	res, err := tr.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	for _, loss := range res.LossHistory {
		test.That(t, math.IsNaN(loss) || math.IsInf(loss, 0), test.ShouldBeFalse)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	x, y := separable()
	tr, err := New(x, y, Options{LearningRate: 0.1, Epochs: 10}, nil)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Run(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestNewValidation(t *testing.T) {
	x, y := separable()

	_, err := New(x, mat.NewDense(2, 3, nil), Options{LearningRate: 0.1}, nil)
	test.That(t, errors.Is(err, mat.ErrShape), test.ShouldBeTrue)

	_, err = New(x, y, Options{LearningRate: 0}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(x, y, Options{LearningRate: 0.1, Epochs: -1}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(nil, y, Options{LearningRate: 0.1}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
