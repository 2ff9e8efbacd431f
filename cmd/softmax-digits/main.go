package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"softmax-digits/internal/config"
	"softmax-digits/internal/dataset"
	"softmax-digits/internal/logging"
	"softmax-digits/internal/model"
	"softmax-digits/internal/report"
	"softmax-digits/internal/trainer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "softmax-digits: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "softmax-digits",
		Usage: "train a softmax regression digit classifier with full-batch gradient descent",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "configs/demo.yaml", Usage: "path to YAML config"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory searched for train.csv and test.csv"},
			&cli.StringFlag{Name: "train", Usage: "override training CSV"},
			&cli.StringFlag{Name: "test", Usage: "override test CSV"},
			&cli.StringFlag{Name: "output", Usage: "override predictions CSV"},
			&cli.StringFlag{Name: "plot", Usage: "write the loss curve to this image"},
			&cli.IntFlag{Name: "epochs", Usage: "number of gradient-descent epochs"},
			&cli.Float64Flag{Name: "learning-rate", Usage: "gradient-descent step size"},
			&cli.Int64Flag{Name: "seed", Usage: "PRNG seed for parameter initialization"},
			&cli.IntFlag{Name: "log-every", Usage: "report accuracy every N epochs"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	logger, err := logging.NewLogger("softmax-digits", c.Bool("debug"))
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	overrides := config.Overrides{
		DataDir:      c.String("data-dir"),
		TrainPath:    c.String("train"),
		TestPath:     c.String("test"),
		OutputPath:   c.String("output"),
		PlotPath:     c.String("plot"),
		LearningRate: c.Float64("learning-rate"),
		LogEvery:     c.Int("log-every"),
		Seed:         c.Int64("seed"),
	}
	if c.IsSet("epochs") {
		epochs := c.Int("epochs")
		overrides.Epochs = &epochs
	}
	cfg.ApplyOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if err := resolveSplits(cfg); err != nil {
		return err
	}

	loadOpts := dataset.LoadOptions{
		IDColumn:      cfg.IDColumn,
		LabelColumn:   cfg.LabelColumn,
		NumClasses:    cfg.NumClasses,
		RequireLabels: true,
	}
	train, err := dataset.LoadFile(cfg.TrainPath, loadOpts)
	if err != nil {
		return err
	}
	if err := train.Normalize(cfg.PixelScale); err != nil {
		return err
	}
	x := train.Matrix()
	y, err := train.OneHot(cfg.NumClasses)
	if err != nil {
		return err
	}
	logger.Info("loaded training set",
		zap.String("path", cfg.TrainPath),
		zap.Int("samples", train.Len()),
		zap.Int("features", train.NumFeatures()),
	)

	tr, err := trainer.New(x, y, trainer.Options{
		LearningRate:    cfg.LearningRate,
		Epochs:          cfg.Epochs,
		LogEvery:        cfg.LogEvery,
		Seed:            cfg.Seed,
		BiasGradient:    cfg.Bias(),
		UnstableSoftmax: !cfg.StableSoftmax,
	}, logger.Named("trainer"))
	if err != nil {
		return err
	}
	res, err := tr.Run(c.Context)
	if err != nil {
		return errors.Wrap(err, "training failed")
	}

	fwd := model.ForwardOptions{Unstable: !cfg.StableSoftmax}
	probs, err := model.Predict(x, res.Params, fwd)
	if err != nil {
		return err
	}
	if err := report.ClassSummary(c.App.Writer, model.ArgmaxColumns(probs), train.Labels, cfg.NumClasses); err != nil {
		return err
	}

	if cfg.PlotPath != "" && len(res.LossHistory) > 0 {
		if err := report.PlotLoss(res.LossHistory, cfg.PlotPath); err != nil {
			return err
		}
		logger.Info("wrote loss plot", zap.String("path", cfg.PlotPath))
	}

	if cfg.TestPath == "" {
		return nil
	}
	loadOpts.RequireLabels = false
	testSet, err := dataset.LoadFile(cfg.TestPath, loadOpts)
	if err != nil {
		return err
	}
	if err := testSet.Select(train.FeatureNames); err != nil {
		return errors.Wrapf(err, "test set %s", cfg.TestPath)
	}
	if err := testSet.Normalize(cfg.PixelScale); err != nil {
		return err
	}
	testProbs, err := model.Predict(testSet.Matrix(), res.Params, fwd)
	if err != nil {
		return err
	}
	if err := report.WritePredictionsFile(cfg.OutputPath, testSet.IDs, testProbs); err != nil {
		return err
	}
	logger.Info("wrote predictions", zap.String("path", cfg.OutputPath), zap.Int("samples", testSet.Len()))
	return nil
}

// resolveSplits fills in train and test paths from the data directory when
// they were not given explicitly.
func resolveSplits(cfg *config.Config) error {
	if cfg.DataDir == "" {
		return nil
	}
	files, err := dataset.Discover(cfg.DataDir)
	if err != nil {
		return err
	}
	if cfg.TrainPath == "" {
		cfg.TrainPath = files.Train
	}
	if cfg.TestPath == "" {
		cfg.TestPath = files.Test
	}
	if cfg.TrainPath == "" {
		return errors.Errorf("no train.csv found under %s", cfg.DataDir)
	}
	if cfg.TestPath != "" && cfg.OutputPath == "" {
		return errors.New("output_path must be set when a test split is present")
	}
	return nil
}
