package mlp

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every stored activation, delta and weight is rounded to.
const Places int32 = 28

// sigmoidBound is the symmetric input range of Sigmoid. Past it e^-x overflows nothing useful.
const sigmoidBound = 40.0

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Clip bounds used by ApplyWeightUpdate.
var (
	ActivationClip = decimal.NewFromInt(10)
	DeltaClip      = decimal.NewFromInt(10)
	GradientClip   = decimal.NewFromInt(25)
	WeightClip     = decimal.NewFromInt(5)
)

// Clamp returns v bounded to [lo, hi]. lo must not exceed hi.
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ReLU returns max(x, 0).
func ReLU(x decimal.Decimal) decimal.Decimal {
	if x.IsPositive() {
		return x
	}
	return zero
}

// ReLUPrime is the ReLU derivative read off the post-activation value.
// The sub-gradient at exactly 0 is taken as 0.
func ReLUPrime(a decimal.Decimal) decimal.Decimal {
	if a.IsPositive() {
		return one
	}
	return zero
}

// Sigmoid computes 1/(1+e^-x) with x clamped to [-40, 40]. The reciprocal is taken in
// decimal, so the result stays strictly inside (0, 1).
func Sigmoid(x decimal.Decimal) decimal.Decimal {
	z := clampFloat(x.InexactFloat64(), -sigmoidBound, sigmoidBound)
	e := decimal.NewFromFloat(math.Exp(-z))
	return one.DivRound(one.Add(e), Places)
}

// SigmoidPrime is the sigmoid derivative in terms of its output y.
func SigmoidPrime(y decimal.Decimal) decimal.Decimal {
	return y.Mul(one.Sub(y)).Round(Places)
}

// XavierUniform samples U[-L, L] with L = sqrt(6/fanIn).
func XavierUniform(r *rand.Rand, fanIn int) decimal.Decimal {
	limit := math.Sqrt(6.0 / float64(fanIn))
	return decimal.NewFromFloat((r.Float64()*2 - 1) * limit)
}

// ApplyWeightUpdate performs one clipped gradient descent step on w.
// The source activation, the delta, the gradient and the resulting weight are each clipped.
func ApplyWeightUpdate(w, activation, delta, rate decimal.Decimal) decimal.Decimal {
	a := Clamp(activation, ActivationClip.Neg(), ActivationClip)
	d := Clamp(delta, DeltaClip.Neg(), DeltaClip)
	g := Clamp(a.Mul(d), GradientClip.Neg(), GradientClip)
	updated := w.Sub(rate.Mul(g)).Round(Places)
	return Clamp(updated, WeightClip.Neg(), WeightClip)
}
