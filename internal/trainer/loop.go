package trainer

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"softmax-digits/internal/metrics"
	"softmax-digits/internal/model"
)

const defaultLogEvery = 50

// Options captures the knobs required by the training loop.
type Options struct {
	LearningRate float64
	Epochs       int
	LogEvery     int
	Seed         int64
	BiasGradient model.BiasGradient
	// UnstableSoftmax reproduces the unshifted softmax that overflows on large logits.
	UnstableSoftmax bool
}

// Checkpoint is the training-set accuracy observed at a logged epoch.
type Checkpoint struct {
	Epoch    int
	Accuracy float64
	Loss     float64
}

// Result is what a finished run hands back to the caller.
type Result struct {
	Params      *model.Params
	LossHistory []float64
	Checkpoints []Checkpoint
}

// Trainer fits a softmax classifier to a borrowed feature matrix X
// (features x samples) and one-hot target matrix Y (classes x samples).
type Trainer struct {
	x      mat.Matrix
	y      mat.Matrix
	opts   Options
	logger *zap.Logger
}

// New validates the inputs and returns a Trainer ready to Run.
func New(x, y mat.Matrix, opts Options, logger *zap.Logger) (*Trainer, error) {
	if x == nil || y == nil {
		return nil, errors.New("trainer: features and targets are required")
	}
	_, n := x.Dims()
	_, yn := y.Dims()
	if n == 0 {
		return nil, errors.New("trainer: no samples")
	}
	if yn != n {
		return nil, errors.Wrapf(mat.ErrShape, "trainer: %d feature columns but %d target columns", n, yn)
	}
	if opts.LearningRate <= 0 {
		return nil, errors.Errorf("trainer: learning rate must be > 0 (got %v)", opts.LearningRate)
	}
	if opts.Epochs < 0 {
		return nil, errors.Errorf("trainer: epochs must be >= 0 (got %d)", opts.Epochs)
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = defaultLogEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{x: x, y: y, opts: opts, logger: logger}, nil
}

// Run initializes fresh parameters and performs exactly Epochs full-batch
// gradient-descent steps. Every LogEvery-th epoch, counting from 0, the
// accuracy of that epoch's forward pass is recorded and logged.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	features, samples := t.x.Dims()
	classes, _ := t.y.Dims()

	params, err := model.Initialize(features, classes, rand.New(rand.NewSource(t.opts.Seed)))
	if err != nil {
		return nil, err
	}

	res := &Result{LossHistory: make([]float64, 0, t.opts.Epochs)}
	fwd := model.ForwardOptions{Unstable: t.opts.UnstableSoftmax}
	var window metrics.Window
	warned := false

	for epoch := 0; epoch < t.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		_, a, err := model.Forward(t.x, params, fwd)
		if err != nil {
			return nil, errors.Wrapf(err, "epoch %d: forward", epoch)
		}
		next, err := model.Backward(t.x, t.y, a, params, t.opts.LearningRate, t.opts.BiasGradient)
		if err != nil {
			return nil, errors.Wrapf(err, "epoch %d: backward", epoch)
		}
		params = next
		computeTime := time.Since(start)

		loss := model.CrossEntropy(a, t.y)
		res.LossHistory = append(res.LossHistory, loss)
		window.Record(samples, computeTime, loss)

		if !warned && (math.IsNaN(loss) || math.IsInf(loss, 0)) {
			warned = true
			t.logger.Warn("loss is not finite", zap.Int("epoch", epoch), zap.Float64("loss", loss))
		}

		if epoch%t.opts.LogEvery == 0 {
			acc := model.Accuracy(a, t.y)
			res.Checkpoints = append(res.Checkpoints, Checkpoint{Epoch: epoch, Accuracy: acc, Loss: loss})
			snap := window.Snapshot()
			t.logger.Info("training",
				zap.Int("epoch", epoch),
				zap.Float64("accuracy", acc),
				zap.Float64("loss", loss),
				zap.Float64("mean_loss", snap.MeanLoss),
				zap.Float64("last_loss", snap.LastLoss),
				zap.Float64("compute_ms", snap.AvgComputeMS),
				zap.Float64("samples_per_sec", snap.SamplesPerSec),
			)
		}
	}

	res.Params = params
	return res, nil
}
