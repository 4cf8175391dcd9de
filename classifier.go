package cgan

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Classifier is a single network trained to recognize digits.
// Its weights live in the INPUT, HIDDEN1, HIDDEN2 and OUTPUT sections of a model file.
type Classifier struct {
	NN *mlp.Network

	// Statistics of the last Learn or Evaluate
	Correct, Wrong int

	conf  Config
	r     *rand.Rand
	epoch int
}

// NewClassifier creates a classifier with freshly initialized weights.
func NewClassifier(conf Config) *Classifier {
	if !conf.IsValid() {
		panic("Config is not valid. Unable to proceed")
	}
	r := newRand(conf.Seed)
	nn := mlp.New(conf.classifierConf())
	if err := nn.Init(r); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return &Classifier{
		NN:   nn,
		conf: conf,
		r:    r,
	}
}

// Predict returns the label with the highest output. Ties go to the lower label.
func (c *Classifier) Predict(pixels []decimal.Decimal) (int, error) {
	if err := c.NN.SetInput(pixels); err != nil {
		return -1, err
	}
	return argmax(c.NN.Forward()), nil
}

// Train runs one gradient step towards the one-hot encoding of label and returns the prediction made before the step.
func (c *Classifier) Train(pixels []decimal.Decimal, label int) (int, error) {
	if label < 0 || label >= c.conf.Classes {
		return -1, errors.Errorf("label %d out of range [0, %d)", label, c.conf.Classes)
	}
	predicted, err := c.Predict(pixels)
	if err != nil {
		return -1, err
	}
	delta, err := c.NN.TargetDelta(digit.OneHot(label, c.conf.Classes))
	if err != nil {
		return -1, err
	}
	g, err := c.NN.Backward(delta)
	if err != nil {
		return -1, err
	}
	if err = c.NN.Update(g, c.conf.LearningRate); err != nil {
		return -1, err
	}
	return predicted, nil
}

// Learn trains for the configured number of epochs, saving the weights after every epoch when ModelPath is set.
// The training accuracy of every epoch goes to the Recorder.
func (c *Classifier) Learn(samples []digit.Sample, decode digit.Decoder) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	for c.epoch = 0; c.epoch < c.conf.Epochs; c.epoch++ {
		log.Printf("Epoch %d/%d", c.epoch+1, c.conf.Epochs)
		c.resetStats()
		start := time.Now()

		Shuffle(c.r, samples)
		for i, s := range samples {
			pixels, err := EncodeSample(decode, s)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("epoch %d", c.epoch+1))
			}
			predicted, err := c.Train(pixels, s.Label)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("epoch %d: train on %v", c.epoch+1, s))
			}
			c.tally(predicted, s.Label)
			log.Printf("epoch#%d %d/%d", c.epoch+1, i+1, len(samples))
		}
		elapsed := time.Since(start)
		log.Printf("Epoch %d done in %v. Training accuracy %.2f%%", c.epoch+1, elapsed, 100*c.Accuracy())

		if c.conf.ModelPath != "" {
			if err := c.Save(c.conf.ModelPath); err != nil {
				return errors.WithMessage(err, "Save fail")
			}
		}
		if c.conf.Recorder != nil {
			summary := EpochSummary{
				Run:      c.conf.Name,
				Epoch:    c.epoch + 1,
				Samples:  c.Correct + c.Wrong,
				Accuracy: float32(c.Accuracy()),
				Elapsed:  elapsed,
			}
			if err := c.conf.Recorder(summary); err != nil {
				return errors.WithMessage(err, "Record fail")
			}
		}
	}
	return nil
}

// Evaluate predicts every sample and returns the fraction predicted correctly.
func (c *Classifier) Evaluate(samples []digit.Sample, decode digit.Decoder) (float64, error) {
	c.resetStats()
	for i, s := range samples {
		pixels, err := EncodeSample(decode, s)
		if err != nil {
			return 0, err
		}
		predicted, err := c.Predict(pixels)
		if err != nil {
			return 0, errors.WithMessage(err, s.Path)
		}
		c.tally(predicted, s.Label)
		log.Printf("test %d/%d: %v predicted as %d", i+1, len(samples), s, predicted)
	}
	return c.Accuracy(), nil
}

// Accuracy is Correct over all tallied samples, or 0 when nothing was tallied.
func (c *Classifier) Accuracy() float64 {
	total := c.Correct + c.Wrong
	if total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(total)
}

// Save writes the classifier weights to filename, replacing it atomically.
func (c *Classifier) Save(filename string) error { return save(filename, c.NN) }

// Load reads the classifier weights from filename.
func (c *Classifier) Load(filename string) error { return load(filename, c.NN) }

func (c *Classifier) resetStats() {
	c.Correct = 0
	c.Wrong = 0
}

func (c *Classifier) tally(predicted, label int) {
	if predicted == label {
		c.Correct++
	} else {
		c.Wrong++
	}
}

func argmax(a []decimal.Decimal) int {
	best := 0
	for i := 1; i < len(a); i++ {
		if a[i].GreaterThan(a[best]) {
			best = i
		}
	}
	return best
}
