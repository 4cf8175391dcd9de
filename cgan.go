package cgan

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
)

// ErrNoSamples is returned when Learn is given nothing to learn from.
var ErrNoSamples = errors.New("no samples to learn from")

// GAN is the top level structure and the entry point of the API.
// It pairs a conditional generator with a discriminator and trains them against each other.
type GAN struct {
	// state
	Arena
	Statistics

	// config
	conf Config

	// io
	outEnc   OutputEncoder
	recorder Recorder
}

// New creates a GAN with freshly initialized networks.
func New(conf Config) *GAN {
	if !conf.IsValid() {
		panic("Config is not valid. Unable to proceed")
	}
	r := newRand(conf.Seed)
	d := mlp.New(conf.discriminatorConf())
	g := mlp.New(conf.generatorConf())
	if err := d.Init(r); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	if err := g.Init(r); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	outEnc := conf.OutputEncoder
	if outEnc == nil {
		outEnc = nopEncoder{}
	}
	retVal := &GAN{
		Arena:      MakeArena(d, g, conf, r),
		Statistics: makeStatistics(),
		conf:       conf,
		outEnc:     outEnc,
		recorder:   conf.Recorder,
	}
	retVal.logger = log.New(&retVal.buf, "", log.Ltime)
	return retVal
}

// Config returns the configuration the GAN was built with.
func (a *GAN) Config() Config { return a.conf }

// Learn trains for the configured number of epochs over samples, reshuffled every epoch.
// After each epoch the weights are saved, the output encoder runs and the recorder is called.
func (a *GAN) Learn(samples []digit.Sample, decode digit.Decoder) (err error) {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	defer func() {
		if ferr := a.outEnc.Flush(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	for a.epoch = 0; a.epoch < a.conf.Epochs; a.epoch++ {
		log.Printf("Epoch %d/%d", a.epoch+1, a.conf.Epochs)
		a.buf.Reset()
		a.logger.Printf("Epoch %d of %s", a.epoch+1, a.name)
		a.logger.SetPrefix("\t")
		start := time.Now()

		Shuffle(a.r, samples)
		for a.sample = 0; a.sample < len(samples); a.sample++ {
			s := samples[a.sample]
			pixels, err := EncodeSample(decode, s)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("epoch %d", a.epoch+1))
			}
			res, err := a.Step(pixels, s.Label)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("epoch %d: step on %v", a.epoch+1, s))
			}
			a.observe(res)
			log.Printf("epoch#%d %d/%d", a.epoch+1, a.sample+1, len(samples))
		}
		a.logger.SetPrefix("")

		summary := a.update(a.name, a.epoch+1, time.Since(start))
		log.Printf("Epoch %d done in %v. Mean realness: real %.3f, fake %.3f, fool %.3f", summary.Epoch, summary.Elapsed, summary.Real, summary.Fake, summary.Fool)

		if a.conf.ModelPath != "" {
			if err = a.Save(a.conf.ModelPath); err != nil {
				return errors.WithMessage(err, "Save fail")
			}
			log.Printf("Saved weights to %v", a.conf.ModelPath)
		}
		if err = a.outEnc.Encode(a); err != nil {
			return errors.WithMessage(err, "Encode fail")
		}
		if a.recorder != nil {
			if err = a.recorder(summary); err != nil {
				return errors.WithMessage(err, "Record fail")
			}
		}
	}
	return nil
}

// Save writes both networks to filename, discriminator first.
// The file is replaced atomically so an interrupted save leaves the old weights intact.
func (a *GAN) Save(filename string) error { return save(filename, a.D, a.G) }

func save(filename string, nets ...*mlp.Network) (err error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	if err = mlp.Encode(w, nets...); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	if err = f.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(f.Name(), filename))
}

// Load reads both networks from filename.
func (a *GAN) Load(filename string) error { return a.load(filename, a.D, a.G) }

// LoadGenerator reads only the G sections of filename.
func (a *GAN) LoadGenerator(filename string) error { return a.load(filename, a.G) }

// LoadDiscriminator reads only the D sections of filename.
func (a *GAN) LoadDiscriminator(filename string) error { return a.load(filename, a.D) }

func (a *GAN) load(filename string, nets ...*mlp.Network) error { return load(filename, nets...) }

// load decodes nets from filename and checks that every weight vector still fits its layer.
func load(filename string, nets ...*mlp.Network) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	if err = mlp.Decode(f, nets...); err != nil {
		return errors.WithMessage(err, filename)
	}
	for _, n := range nets {
		if err = n.Validate(); err != nil {
			return errors.WithMessage(err, filename)
		}
	}
	return nil
}

// Shuffle is an in place Fisher-Yates shuffle.
func Shuffle(r *rand.Rand, samples []digit.Sample) {
	for i := len(samples) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		samples[i], samples[j] = samples[j], samples[i]
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

var _ digit.MetaState = &GAN{}
