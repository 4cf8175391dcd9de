package cgan

import (
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorgonia/cgan/digit"
	"github.com/gorgonia/cgan/mlp"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestArgmax(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, 2, argmax([]decimal.Decimal{d("0.1"), d("0.2"), d("0.9"), d("0.3")}))
	assert.Equal(t, 1, argmax([]decimal.Decimal{d("0.1"), d("0.5"), d("0.5")}), "ties go to the lower label")
	assert.Equal(t, 0, argmax([]decimal.Decimal{d("0.5")}))
}

func TestClassifierTrain(t *testing.T) {
	c := NewClassifier(smallConf(Conditional))
	assert.Equal(t, "INPUT", c.NN.Layers[mlp.InputLayer].Name)
	r := rand.New(rand.NewSource(4))

	before := snapshot(c.NN)
	pixels := randomPixels(r, 6)
	p, err := c.Train(pixels, 1)
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, p == 0 || p == 1)
	assert.True(t, changed(before, snapshot(c.NN)))

	_, err = c.Train(pixels, 2)
	assert.Error(t, err)
	_, err = c.Predict(randomPixels(r, 3))
	assert.Equal(t, mlp.ErrTopology, errors.Cause(err))
}

func TestClassifierSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "classifier.txt")
	c := NewClassifier(smallConf(Conditional))
	if err := c.Save(filename); err != nil {
		t.Fatal(err)
	}

	conf := smallConf(Conditional)
	conf.Seed = 21
	c2 := NewClassifier(conf)
	if err := c2.Load(filename); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snapshot(c.NN), snapshot(c2.NN), decimalEq); diff != "" {
		t.Errorf("loaded weights differ:\n%s", diff)
	}

	// a GAN model has no classifier sections
	ganFile := filepath.Join(t.TempDir(), "gan.txt")
	if err := New(smallConf(Conditional)).Save(ganFile); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, mlp.ErrIncompleteModel, errors.Cause(c2.Load(ganFile)))
}

func TestClassifierLearnEvaluate(t *testing.T) {
	conf := DefaultConfig()
	conf.Hidden = 2
	conf.Epochs = 1
	conf.Seed = 8
	conf.ModelPath = filepath.Join(t.TempDir(), "classifier.txt")
	c := NewClassifier(conf)

	samples := []digit.Sample{
		{Path: "1/1.png", Label: 1, Key: 1},
		{Path: "2/2.png", Label: 2, Key: 2},
	}
	images := map[string]image.Image{
		"1/1.png": digitImage(0),
		"2/2.png": digitImage(200),
	}
	if err := c.Learn(samples, fakeDecoder(images)); err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, 2, c.Correct+c.Wrong)

	c2 := NewClassifier(conf)
	assert.NoError(t, c2.Load(conf.ModelPath))

	acc, err := c2.Evaluate(samples, fakeDecoder(images))
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 2, c2.Correct+c2.Wrong)
	assert.Equal(t, float64(c2.Correct)/2, acc)

	_, err = c2.Evaluate([]digit.Sample{{Path: "nope.png"}}, fakeDecoder(images))
	assert.Error(t, err)
	assert.Zero(t, NewClassifier(conf).Accuracy())
}

func TestClassifierSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "classifier.txt")
	c := NewClassifier(smallConf(Conditional))
	must(t, c.Save(filename))
	must(t, c.Save(filename))
	entries, err := os.ReadDir(dir)
	must(t, err)
	assert.Len(t, entries, 1, "no temp file is left behind")

	// a directory in the way makes the final rename fail
	blocked := filepath.Join(dir, "blocked")
	must(t, os.Mkdir(blocked, 0755))
	must(t, os.WriteFile(filepath.Join(blocked, "keep"), []byte("x"), 0644))
	assert.Error(t, c.Save(blocked))
	assert.Error(t, New(smallConf(Conditional)).Save(blocked))

	entries, err = os.ReadDir(dir)
	must(t, err)
	assert.Len(t, entries, 2)
	_, err = os.Stat(filepath.Join(blocked, "keep"))
	assert.NoError(t, err)

	c2 := NewClassifier(smallConf(Conditional))
	must(t, c2.Load(filename))
	if diff := cmp.Diff(snapshot(c.NN), snapshot(c2.NN), decimalEq); diff != "" {
		t.Errorf("loaded weights differ:\n%s", diff)
	}
}

func TestClassifierLearnRecords(t *testing.T) {
	conf := DefaultConfig()
	conf.Name = "digits"
	conf.Hidden = 2
	conf.Epochs = 2
	conf.Seed = 8
	var summaries []EpochSummary
	conf.Recorder = func(s EpochSummary) error {
		summaries = append(summaries, s)
		return nil
	}
	c := NewClassifier(conf)

	samples := []digit.Sample{
		{Path: "1/1.png", Label: 1, Key: 1},
		{Path: "2/2.png", Label: 2, Key: 2},
	}
	images := map[string]image.Image{
		"1/1.png": digitImage(0),
		"2/2.png": digitImage(200),
	}
	if err := c.Learn(samples, fakeDecoder(images)); err != nil {
		t.Fatalf("%+v", err)
	}
	if assert.Len(t, summaries, 2) {
		for i, s := range summaries {
			assert.Equal(t, "digits", s.Run)
			assert.Equal(t, i+1, s.Epoch)
			assert.Equal(t, 2, s.Samples)
		}
		assert.Equal(t, float32(c.Accuracy()), summaries[1].Accuracy)
	}

	assert.Equal(t, ErrNoSamples, c.Learn(nil, fakeDecoder(images)))
	assert.Len(t, summaries, 2)
}
