package cgan

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"
	"math/rand"

	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Arena is where the discriminator D and the generator G play against each other.
// One Step is one round: D learns a real sample, then a fake one, then G learns to fool D.
type Arena struct {
	r    *rand.Rand
	D, G *mlp.Network

	variant Variant
	classes int
	pixels  int
	rate    decimal.Decimal

	// state
	buf    bytes.Buffer
	logger *log.Logger

	// only relevant to training
	name   string
	epoch  int // training epoch
	sample int // which sample of the epoch is this
}

// MakeArena makes an arena for two networks. The networks must have been built from the same Config.
func MakeArena(d, g *mlp.Network, conf Config, r *rand.Rand) Arena {
	name := conf.Name
	if name == "" {
		name = "UNKNOWN RUN"
	}
	return Arena{
		r:       r,
		D:       d,
		G:       g,
		variant: conf.Variant,
		classes: conf.Classes,
		pixels:  conf.Pixels,
		rate:    conf.LearningRate,
		name:    name,
	}
}

// NewArena makes an arena with a fresh pair of initialized networks.
func NewArena(conf Config) (*Arena, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid config %+v", conf)
	}
	r := newRand(conf.Seed)
	d := mlp.New(conf.discriminatorConf())
	g := mlp.New(conf.generatorConf())
	if err := d.Init(r); err != nil {
		return nil, err
	}
	if err := g.Init(r); err != nil {
		return nil, err
	}
	a := MakeArena(d, g, conf, r)
	a.logger = log.New(&a.buf, "", log.Ltime)
	return &a, nil
}

// Step trains on one real sample. The class conditioning the fake is drawn before anything else happens.
func (a *Arena) Step(pixels []decimal.Decimal, label int) (res StepResult, err error) {
	if label < 0 || label >= a.classes {
		return res, errors.Errorf("label %d out of range [0, %d)", label, a.classes)
	}
	if len(pixels) != a.pixels {
		return res, errors.Wrapf(mlp.ErrTopology, "%d pixels, expected %d", len(pixels), a.pixels)
	}

	fakeLabel := a.r.Intn(a.classes)
	fake, err := a.generate(fakeLabel)
	if err != nil {
		return res, err
	}

	if res.Real, err = a.trainDiscriminator(pixels, label, a.realTarget(label)); err != nil {
		return res, errors.WithMessage(err, "real phase")
	}
	if res.Fake, err = a.trainDiscriminator(fake, fakeLabel, a.fakeTarget()); err != nil {
		return res, errors.WithMessage(err, "fake phase")
	}
	if res.Fool, err = a.trainGenerator(fake, fakeLabel); err != nil {
		return res, errors.WithMessage(err, "fool phase")
	}
	if a.logger != nil {
		a.logger.Printf("sample %d: label %d fake %d | real %v fake %v fool %v", a.sample, label, fakeLabel,
			res.Real.StringFixed(4), res.Fake.StringFixed(4), res.Fool.StringFixed(4))
	}
	return res, nil
}

// Score is the realness D assigns to the pixels claimed to show label.
func (a *Arena) Score(pixels []decimal.Decimal, label int) (decimal.Decimal, error) {
	if label < 0 || label >= a.classes {
		return decimal.Decimal{}, errors.Errorf("label %d out of range [0, %d)", label, a.classes)
	}
	out, err := a.discriminate(pixels, label)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return a.realness(out), nil
}

// GenerateActivations runs G for label and returns its output activations.
func (a *Arena) GenerateActivations(label int) ([]decimal.Decimal, error) {
	if label < 0 || label >= a.classes {
		return nil, errors.Errorf("label %d out of range [0, %d)", label, a.classes)
	}
	return a.generate(label)
}

// Generate renders the output of G for label as a grayscale digit.
func (a *Arena) Generate(label int) (*image.Gray, error) {
	acts, err := a.GenerateActivations(label)
	if err != nil {
		return nil, err
	}
	return digit.Image(acts)
}

func (a *Arena) Epoch() int   { return a.epoch }
func (a *Arena) Sample() int  { return a.sample }
func (a *Arena) Name() string { return a.name }
func (a *Arena) Classes() int { return a.classes }

// Log writes the per sample log of the current epoch.
func (a *Arena) Log(w io.Writer) {
	fmt.Fprint(w, a.buf.String())
}

func (a *Arena) generate(label int) ([]decimal.Decimal, error) {
	if err := a.G.SetInput(digit.OneHot(label, a.classes)); err != nil {
		return nil, err
	}
	return a.G.Forward(), nil
}

func (a *Arena) discriminate(pixels []decimal.Decimal, label int) ([]decimal.Decimal, error) {
	if err := a.D.SetInputAt(0, pixels); err != nil {
		return nil, err
	}
	if a.variant == Conditional {
		if err := a.D.SetInputAt(a.pixels, digit.OneHot(label, a.classes)); err != nil {
			return nil, err
		}
	}
	return a.D.Forward(), nil
}

func (a *Arena) trainDiscriminator(pixels []decimal.Decimal, label int, target []decimal.Decimal) (decimal.Decimal, error) {
	out, err := a.discriminate(pixels, label)
	if err != nil {
		return decimal.Decimal{}, err
	}
	delta, err := a.D.TargetDelta(target)
	if err != nil {
		return decimal.Decimal{}, err
	}
	g, err := a.D.Backward(delta)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err = a.D.Update(g, a.rate); err != nil {
		return decimal.Decimal{}, err
	}
	return a.realness(out), nil
}

// trainGenerator pushes the gradient of D's error on the fake back through D's input into G.
// D is not updated. G still holds the activations that produced fake.
func (a *Arena) trainGenerator(fake []decimal.Decimal, label int) (decimal.Decimal, error) {
	out, err := a.discriminate(fake, label)
	if err != nil {
		return decimal.Decimal{}, err
	}
	delta, err := a.D.TargetDelta(a.generatorTarget(label))
	if err != nil {
		return decimal.Decimal{}, err
	}
	dg, err := a.D.Backward(delta)
	if err != nil {
		return decimal.Decimal{}, err
	}
	in, err := a.D.InputGradient(dg)
	if err != nil {
		return decimal.Decimal{}, err
	}
	gDelta, err := a.G.GradientDelta(in[:a.pixels])
	if err != nil {
		return decimal.Decimal{}, err
	}
	gg, err := a.G.Backward(gDelta)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err = a.G.Update(gg, a.rate); err != nil {
		return decimal.Decimal{}, err
	}
	return a.realness(out), nil
}

func (a *Arena) realTarget(label int) []decimal.Decimal {
	if a.variant == MultiClass {
		return digit.OneHot(label, a.classes+1)
	}
	return []decimal.Decimal{decimal.NewFromInt(1)}
}

func (a *Arena) fakeTarget() []decimal.Decimal {
	if a.variant == MultiClass {
		return digit.OneHot(a.classes, a.classes+1)
	}
	return []decimal.Decimal{decimal.Zero}
}

func (a *Arena) generatorTarget(label int) []decimal.Decimal { return a.realTarget(label) }

// realness reads D's output as the probability that the input is real.
// For MultiClass discriminators that is the complement of the fake unit.
func (a *Arena) realness(out []decimal.Decimal) decimal.Decimal {
	if a.variant == MultiClass {
		return decimal.NewFromInt(1).Sub(out[a.classes])
	}
	return out[0]
}
