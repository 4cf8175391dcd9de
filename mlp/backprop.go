package mlp

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Gradients holds the error signal arriving at every non-input layer of one network.
type Gradients struct {
	Output  []decimal.Decimal
	Hidden2 []decimal.Decimal
	Hidden1 []decimal.Decimal
}

// TargetDelta is the output error for the given target vector: y - t for both heads.
// For the sigmoid head this is the cross-entropy convention, so no sigmoid derivative is applied.
func (n *Network) TargetDelta(target []decimal.Decimal) ([]decimal.Decimal, error) {
	out := n.Layers[OutputLayer]
	if len(target) != out.Width() {
		return nil, errors.Wrapf(ErrTopology, "%d targets for %d output units", len(target), out.Width())
	}
	retVal := make([]decimal.Decimal, len(target))
	for i, u := range out.Units {
		retVal[i] = u.Activation.Sub(target[i])
	}
	return retVal, nil
}

// GradientDelta is the output error for a gradient arriving from outside the network,
// such as the discriminator's input gradient reaching the generator.
// The sigmoid head multiplies by y(1-y); the linear head passes it through.
func (n *Network) GradientDelta(grad []decimal.Decimal) ([]decimal.Decimal, error) {
	out := n.Layers[OutputLayer]
	if len(grad) != out.Width() {
		return nil, errors.Wrapf(ErrTopology, "%d gradients for %d output units", len(grad), out.Width())
	}
	retVal := make([]decimal.Decimal, len(grad))
	for i, u := range out.Units {
		switch n.Head {
		case SigmoidOutput:
			retVal[i] = grad[i].Mul(SigmoidPrime(u.Activation)).Round(Places)
		default:
			retVal[i] = grad[i]
		}
	}
	return retVal, nil
}

// Backward propagates the output error down to hidden-1. Hidden-2 feeds the output ungated,
// so its delta carries no activation derivative; hidden-1 deltas are ReLU gated.
func (n *Network) Backward(outDelta []decimal.Decimal) (Gradients, error) {
	if !n.evaluated {
		return Gradients{}, ErrStale
	}
	if len(outDelta) != n.Layers[OutputLayer].Width() {
		return Gradients{}, errors.Wrapf(ErrTopology, "%d output deltas for %d output units", len(outDelta), n.Layers[OutputLayer].Width())
	}

	h2 := n.Layers[Hidden2Layer].Units
	delta2 := make([]decimal.Decimal, len(h2))
	forEach(len(h2), n.Workers, func(i int) {
		delta2[i] = weightedDelta(h2[i].Weights, outDelta)
	})

	h1 := n.Layers[Hidden1Layer].Units
	delta1 := make([]decimal.Decimal, len(h1))
	forEach(len(h1), n.Workers, func(i int) {
		delta1[i] = weightedDelta(h1[i].Weights, delta2).Mul(ReLUPrime(h1[i].Activation))
	})

	return Gradients{
		Output:  outDelta,
		Hidden2: delta2,
		Hidden1: delta1,
	}, nil
}

// InputGradient continues the backward pass through the input weights and returns, per input
// unit, Σ w·δ1. This is how a discriminator hands its error to the generator that produced its input.
func (n *Network) InputGradient(g Gradients) ([]decimal.Decimal, error) {
	if !n.evaluated {
		return nil, ErrStale
	}
	in := n.Layers[InputLayer].Units
	if len(g.Hidden1) != n.Layers[Hidden1Layer].Width() {
		return nil, errors.Wrapf(ErrTopology, "%d hidden-1 deltas for %d units", len(g.Hidden1), n.Layers[Hidden1Layer].Width())
	}
	retVal := make([]decimal.Decimal, len(in))
	forEach(len(in), n.Workers, func(i int) {
		retVal[i] = weightedDelta(in[i].Weights, g.Hidden1)
	})
	return retVal, nil
}

// Update applies ApplyWeightUpdate to every connection weight. Hidden-2 uses its raw activation,
// hidden-1 its ReLU activation and the input layer its raw activation. The forward state is
// invalidated afterwards.
func (n *Network) Update(g Gradients, rate decimal.Decimal) error {
	if !n.evaluated {
		return ErrStale
	}
	if len(g.Output) != n.Layers[OutputLayer].Width() ||
		len(g.Hidden2) != n.Layers[Hidden2Layer].Width() ||
		len(g.Hidden1) != n.Layers[Hidden1Layer].Width() {
		return errors.Wrapf(ErrTopology, "gradients %d/%d/%d do not fit network %s", len(g.Output), len(g.Hidden2), len(g.Hidden1), n.Name)
	}
	updateLayer(n.Layers[Hidden2Layer], g.Output, rate, false, n.Workers)
	updateLayer(n.Layers[Hidden1Layer], g.Hidden2, rate, true, n.Workers)
	updateLayer(n.Layers[InputLayer], g.Hidden1, rate, false, n.Workers)
	n.evaluated = false
	return nil
}

func updateLayer(l Layer, delta []decimal.Decimal, rate decimal.Decimal, gated bool, workers int) {
	forEach(len(l.Units), workers, func(i int) {
		u := l.Units[i]
		a := u.Activation
		if gated {
			a = ReLU(a)
		}
		for j := range u.Weights {
			u.Weights[j] = ApplyWeightUpdate(u.Weights[j], a, delta[j], rate)
		}
	})
}

func weightedDelta(weights, delta []decimal.Decimal) decimal.Decimal {
	s := zero
	for j, d := range delta {
		s = s.Add(weights[j].Mul(d))
	}
	return s.Round(Places)
}
