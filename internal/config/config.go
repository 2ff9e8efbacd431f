package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"softmax-digits/internal/model"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir       string  `yaml:"data_dir"`
	TrainPath     string  `yaml:"train_path"`
	TestPath      string  `yaml:"test_path"`
	OutputPath    string  `yaml:"output_path"`
	PlotPath      string  `yaml:"plot_path"`
	NumClasses    int     `yaml:"num_classes"`
	IDColumn      string  `yaml:"id_column"`
	LabelColumn   string  `yaml:"label_column"`
	PixelScale    float64 `yaml:"pixel_scale"`
	LearningRate  float64 `yaml:"learning_rate"`
	Epochs        int     `yaml:"epochs"`
	LogEvery      int     `yaml:"log_every"`
	Seed          int64   `yaml:"seed"`
	BiasGradient  string  `yaml:"bias_gradient"`
	StableSoftmax bool    `yaml:"stable_softmax"`
}

// Overrides captures CLI supplied values. Epochs is a pointer so that an
// explicit zero can be told apart from an unset flag.
type Overrides struct {
	DataDir      string
	TrainPath    string
	TestPath     string
	OutputPath   string
	PlotPath     string
	LearningRate float64
	Epochs       *int
	LogEvery     int
	Seed         int64
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	return &Config{
		NumClasses:    10,
		IDColumn:      "id",
		LabelColumn:   "label",
		PixelScale:    255,
		LearningRate:  0.1,
		Epochs:        500,
		LogEvery:      50,
		BiasGradient:  model.BiasPerClass.String(),
		StableSoftmax: true,
	}
}

// Load reads a Config from YAML on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override. A data directory
// given on the command line replaces the file's split paths so that the
// discovered splits are used; explicit train and test paths still win.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
		c.TrainPath = ""
		c.TestPath = ""
	}
	if o.TrainPath != "" {
		c.TrainPath = o.TrainPath
	}
	if o.TestPath != "" {
		c.TestPath = o.TestPath
	}
	if o.OutputPath != "" {
		c.OutputPath = o.OutputPath
	}
	if o.PlotPath != "" {
		c.PlotPath = o.PlotPath
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Epochs != nil {
		c.Epochs = *o.Epochs
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
}

// Validate reports every problem that would keep the config from running.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var err error
	if c.TrainPath == "" && c.DataDir == "" {
		err = multierr.Append(err, errors.New("train_path or data_dir must be set"))
	}
	if c.TestPath != "" && c.OutputPath == "" {
		err = multierr.Append(err, errors.New("output_path must be set when test_path is"))
	}
	if c.NumClasses < 1 {
		err = multierr.Append(err, errors.Errorf("num_classes must be >= 1 (got %d)", c.NumClasses))
	}
	if c.IDColumn == c.LabelColumn {
		err = multierr.Append(err, errors.Errorf("id_column and label_column must differ (both %q)", c.IDColumn))
	}
	if c.PixelScale <= 0 {
		err = multierr.Append(err, errors.Errorf("pixel_scale must be > 0 (got %v)", c.PixelScale))
	}
	if c.LearningRate <= 0 {
		err = multierr.Append(err, errors.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate))
	}
	if c.Epochs < 0 {
		err = multierr.Append(err, errors.Errorf("epochs must be >= 0 (got %d)", c.Epochs))
	}
	if _, perr := model.ParseBiasGradient(c.BiasGradient); perr != nil {
		err = multierr.Append(err, perr)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return err
}

// Bias returns the parsed bias gradient mode. Call after Validate.
func (c *Config) Bias() model.BiasGradient {
	g, _ := model.ParseBiasGradient(c.BiasGradient)
	return g
}
