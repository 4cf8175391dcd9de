package mlp

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrTopology is returned when weight vectors or layer widths disagree with the configuration.
	ErrTopology = errors.New("network topology mismatch")
	// ErrStale is returned when gradients are requested without a forward pass over the current input and weights.
	ErrStale = errors.New("activations are stale; run Forward first")
)

// Network is a fixed four layer feed forward network: input, hidden-1, hidden-2, output.
type Network struct {
	Config
	Layers [4]Layer

	evaluated bool
}

// New returns a network whose weights are all zero. Use Init for training or Decode to load a model.
func New(conf Config) *Network {
	w := conf.widths()
	names := conf.Sections()
	retVal := &Network{Config: conf}
	for i := range retVal.Layers {
		retVal.Layers[i] = makeLayer(names[i], w[i], w[i+1])
	}
	return retVal
}

// Init draws every connection weight with XavierUniform, using the width of the source layer as fan-in.
// Output placeholders stay zero.
func (n *Network) Init(r *rand.Rand) error {
	if !n.IsValid() {
		return errors.Errorf("invalid network config %+v", n.Config)
	}
	for _, l := range n.Layers[:3] {
		fanIn := l.Width()
		for _, u := range l.Units {
			for j := range u.Weights {
				u.Weights[j] = XavierUniform(r, fanIn)
			}
		}
	}
	n.evaluated = false
	return nil
}

// Layer indices into Network.Layers.
const (
	InputLayer = iota
	Hidden1Layer
	Hidden2Layer
	OutputLayer
)

// Outputs copies out the output activations of the last forward pass.
func (n *Network) Outputs() []decimal.Decimal { return n.Layers[OutputLayer].Activations() }

// SetInput loads the input activations.
func (n *Network) SetInput(values []decimal.Decimal) error {
	in := n.Layers[InputLayer]
	if len(values) != in.Width() {
		return errors.Wrapf(ErrTopology, "%d input values for %d input units", len(values), in.Width())
	}
	for i, v := range values {
		in.Units[i].Activation = v
	}
	n.evaluated = false
	return nil
}

// SetInputAt loads a contiguous run of input activations starting at unit offset.
func (n *Network) SetInputAt(offset int, values []decimal.Decimal) error {
	in := n.Layers[InputLayer]
	if offset < 0 || offset+len(values) > in.Width() {
		return errors.Wrapf(ErrTopology, "%d input values at offset %d for %d input units", len(values), offset, in.Width())
	}
	for i, v := range values {
		in.Units[offset+i].Activation = v
	}
	n.evaluated = false
	return nil
}

// Forward evaluates hidden-1 from the raw input, hidden-2 from ReLU(hidden-1),
// and the output from raw hidden-2 followed by the head activation.
func (n *Network) Forward() []decimal.Decimal {
	n.forwardLayer(Hidden1Layer, false)
	n.forwardLayer(Hidden2Layer, true)
	n.forwardLayer(OutputLayer, false)

	out := n.Layers[OutputLayer]
	if n.Head == SigmoidOutput {
		for _, u := range out.Units {
			u.Activation = Sigmoid(u.Activation)
		}
	}
	n.evaluated = true
	return out.Activations()
}

func (n *Network) forwardLayer(l int, gated bool) {
	upstream := n.Layers[l-1]
	units := n.Layers[l].Units
	forEach(len(units), n.Workers, func(i int) {
		units[i].Forward(upstream, i, gated, n.Sum, n.SumBound)
	})
}

// Validate checks that every weight vector has the width of the layer it feeds.
func (n *Network) Validate() error {
	w := n.widths()
	for i, l := range n.Layers {
		if l.Width() != w[i] {
			return errors.Wrapf(ErrTopology, "layer %s has %d units, expected %d", l.Name, l.Width(), w[i])
		}
		for j, u := range l.Units {
			if len(u.Weights) != w[i+1] {
				return errors.Wrapf(ErrTopology, "unit %d of %s has %d weights, expected %d", j, l.Name, len(u.Weights), w[i+1])
			}
		}
	}
	return nil
}
