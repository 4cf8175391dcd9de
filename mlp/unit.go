package mlp

import (
	"math"

	"github.com/shopspring/decimal"
)

// Unit is a single neuron. It owns the weights of its outgoing connections:
// Weights[j] connects it to unit j of the next layer.
type Unit struct {
	Activation decimal.Decimal
	Weights    []decimal.Decimal
}

// NewUnit returns a unit feeding len(weights) downstream units.
func NewUnit(weights []decimal.Decimal) *Unit {
	return &Unit{Weights: weights}
}

// Forward overwrites the activation with the weighted sum over the upstream layer,
// reading column index of every upstream weight vector. When gated, upstream
// activations pass through ReLU first.
func (u *Unit) Forward(upstream Layer, index int, gated bool, sum Summation, bound float64) {
	if sum == ClampedSum {
		var s float64
		for _, in := range upstream.Units {
			a := in.Activation.InexactFloat64()
			if gated {
				a = math.Max(a, 0)
			}
			s += a * in.Weights[index].InexactFloat64()
		}
		u.Activation = decimal.NewFromFloat(clampFloat(s, -bound, bound))
		return
	}

	s := zero
	for _, in := range upstream.Units {
		a := in.Activation
		if gated {
			a = ReLU(a)
		}
		s = s.Add(a.Mul(in.Weights[index]))
	}
	u.Activation = s.Round(Places)
}

// Layer is an ordered group of units sharing a role.
type Layer struct {
	Name  string
	Units []*Unit
}

func makeLayer(name string, width, fanOut int) Layer {
	l := Layer{Name: name, Units: make([]*Unit, width)}
	for i := range l.Units {
		l.Units[i] = NewUnit(make([]decimal.Decimal, fanOut))
	}
	return l
}

// Width is the number of units in the layer.
func (l Layer) Width() int { return len(l.Units) }

// Activations copies out the activations of the layer.
func (l Layer) Activations() []decimal.Decimal {
	retVal := make([]decimal.Decimal, len(l.Units))
	for i, u := range l.Units {
		retVal[i] = u.Activation
	}
	return retVal
}

// Weights copies out the weight rows of the layer.
func (l Layer) Weights() [][]decimal.Decimal {
	retVal := make([][]decimal.Decimal, len(l.Units))
	for i, u := range l.Units {
		retVal[i] = append([]decimal.Decimal(nil), u.Weights...)
	}
	return retVal
}
