package cgan

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Variant selects the shape of the discriminator.
type Variant int

const (
	// Conditional discriminators read the pixels plus a one-hot class and emit a single realness unit.
	Conditional Variant = iota
	// MultiClass discriminators read only the pixels and emit one unit per class plus one fake unit.
	MultiClass
)

func (v Variant) String() string {
	switch v {
	case Conditional:
		return "conditional"
	case MultiClass:
		return "multiclass"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conditional", "":
		return Conditional, nil
	case "multiclass":
		return MultiClass, nil
	}
	return 0, errors.Errorf("unknown discriminator variant %q", s)
}

type Config struct {
	Name    string
	Variant Variant

	Classes int // number of labels
	Pixels  int // pixels per image
	Hidden  int // width of both hidden layers

	LearningRate decimal.Decimal
	Epochs       int
	Seed         int64 // 0 seeds from the clock

	Sum     mlp.Summation
	Workers int

	ModelPath string // weights are written here after every epoch when set

	// extensions
	OutputEncoder OutputEncoder
	Recorder      Recorder
}

// DefaultConfig is the 28x28 digit setup: 128 wide hidden layers, learning rate 0.0002, 10 epochs.
func DefaultConfig() Config {
	return Config{
		Name:         "cgan",
		Variant:      Conditional,
		Classes:      digit.Classes,
		Pixels:       digit.Pixels,
		Hidden:       128,
		LearningRate: decimal.RequireFromString("0.0002"),
		Epochs:       10,
	}
}

func (conf Config) IsValid() bool {
	return conf.Classes >= 2 &&
		conf.Pixels > 0 &&
		conf.Hidden > 0 &&
		conf.Epochs >= 0 &&
		conf.LearningRate.IsPositive() &&
		(conf.Variant == Conditional || conf.Variant == MultiClass) &&
		conf.discriminatorConf().IsValid() &&
		conf.generatorConf().IsValid()
}

func (conf Config) discriminatorConf() mlp.Config {
	var c mlp.Config
	switch conf.Variant {
	case MultiClass:
		c = mlp.DiscriminatorConf(conf.Pixels, conf.Classes+1, conf.Hidden)
	default:
		c = mlp.DiscriminatorConf(conf.Pixels+conf.Classes, 1, conf.Hidden)
	}
	c.Sum = conf.Sum
	c.Workers = conf.Workers
	return c
}

func (conf Config) generatorConf() mlp.Config {
	c := mlp.GeneratorConf(conf.Classes, conf.Pixels, conf.Hidden)
	c.Sum = conf.Sum
	c.Workers = conf.Workers
	return c
}

func (conf Config) classifierConf() mlp.Config {
	c := mlp.ClassifierConf(conf.Classes, conf.Pixels, conf.Hidden)
	c.Sum = conf.Sum
	c.Workers = conf.Workers
	return c
}

// OutputEncoder encodes the state of a run at the end of every epoch.
//
// The gif and mjpeg encoders render a sheet of generated digits.
type OutputEncoder interface {
	Encode(ms digit.MetaState) error
	Flush() error
}

// Recorder receives the summary of every finished epoch.
type Recorder func(s EpochSummary) error

// StepResult holds the realness the discriminator assigned during the three phases of one step.
type StepResult struct {
	Real, Fake, Fool decimal.Decimal
}

// EpochSummary is the mean realness of each phase over one epoch.
// Classifier runs leave the realness at zero and fill in Accuracy.
type EpochSummary struct {
	Run     string
	Epoch   int
	Samples int

	Real, Fake, Fool float32
	Accuracy         float32
	Elapsed          time.Duration
}
