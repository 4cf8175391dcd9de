package mlp

import "fmt"

// Head selects the activation of the output layer and the error formula used at it.
type Head int

const (
	LinearOutput Head = iota
	SigmoidOutput
)

func (h Head) String() string {
	switch h {
	case LinearOutput:
		return "linear"
	case SigmoidOutput:
		return "sigmoid"
	}
	return fmt.Sprintf("Head(%d)", int(h))
}

// Summation selects how Unit.Forward accumulates its weighted sum.
type Summation int

const (
	// ExactSum accumulates in decimal and never clamps.
	ExactSum Summation = iota
	// ClampedSum accumulates in float64 and clamps the result to ±SumBound.
	ClampedSum
)

// DefaultSumBound is the ClampedSum bound.
const DefaultSumBound = 1000000.0

// OutputPlaceholder is the width of the zero weight vector carried by output units.
const OutputPlaceholder = 10

// Config configures the network
type Config struct {
	Name string // section prefix; "D" gives D_input, D_hidden1, ... and "" gives INPUT, HIDDEN1, ...

	Input, Hidden1, Hidden2, Output int // layer widths

	Head     Head
	Sum      Summation
	SumBound float64 // only used with ClampedSum
	Workers  int     // goroutines per layer; <= 1 is sequential
}

// GeneratorConf is a generator: one-hot class in, one sigmoid unit per pixel out.
func GeneratorConf(classes, pixels, hidden int) Config {
	return Config{
		Name:     "G",
		Input:    classes,
		Hidden1:  hidden,
		Hidden2:  hidden,
		Output:   pixels,
		Head:     SigmoidOutput,
		SumBound: DefaultSumBound,
	}
}

// DiscriminatorConf is a discriminator reading inputs units and emitting outputs realness units.
func DiscriminatorConf(inputs, outputs, hidden int) Config {
	return Config{
		Name:     "D",
		Input:    inputs,
		Hidden1:  hidden,
		Hidden2:  hidden,
		Output:   outputs,
		Head:     SigmoidOutput,
		SumBound: DefaultSumBound,
	}
}

// ClassifierConf is a plain pixels to classes network.
func ClassifierConf(classes, pixels, hidden int) Config {
	return Config{
		Input:    pixels,
		Hidden1:  hidden,
		Hidden2:  hidden,
		Output:   classes,
		Head:     SigmoidOutput,
		SumBound: DefaultSumBound,
	}
}

func (conf Config) IsValid() bool {
	return conf.Input > 0 &&
		conf.Hidden1 > 0 &&
		conf.Hidden2 > 0 &&
		conf.Output > 0 &&
		(conf.Head == LinearOutput || conf.Head == SigmoidOutput) &&
		(conf.Sum == ExactSum || (conf.Sum == ClampedSum && conf.SumBound > 0))
}

// widths returns the layer widths in order, followed by the placeholder width of the output layer.
func (conf Config) widths() []int {
	return []int{conf.Input, conf.Hidden1, conf.Hidden2, conf.Output, OutputPlaceholder}
}

// Sections returns the persisted section name of every layer, input first.
func (conf Config) Sections() []string {
	if conf.Name == "" {
		return []string{"INPUT", "HIDDEN1", "HIDDEN2", "OUTPUT"}
	}
	p := conf.Name + "_"
	return []string{p + "input", p + "hidden1", p + "hidden2", p + "output"}
}
