package cgan

import (
	"bytes"
	"image"
	"image/color"
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

var decimalEq = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestShuffle(t *testing.T) {
	samples := make([]digit.Sample, 50)
	for i := range samples {
		samples[i] = digit.Sample{Path: filepath.Join("x", string(rune('a'+i%26))), Label: i % 10, Key: i}
	}
	a := append([]digit.Sample{}, samples...)
	b := append([]digit.Sample{}, samples...)
	Shuffle(rand.New(rand.NewSource(9)), a)
	Shuffle(rand.New(rand.NewSource(9)), b)
	assert.Equal(t, a, b, "same seed, same order")
	assert.NotEqual(t, samples, a)

	seen := make(map[int]bool)
	for _, s := range a {
		seen[s.Key] = true
	}
	assert.Len(t, seen, len(samples), "shuffle must be a permutation")

	Shuffle(rand.New(rand.NewSource(1)), nil)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "model_weights.txt")

	conf := smallConf(Conditional)
	a := New(conf)
	if err := a.Save(filename); err != nil {
		t.Fatalf("%+v", err)
	}
	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "no temporary files are left behind")

	conf.Seed = 99
	b := New(conf)
	if err := b.Load(filename); err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := cmp.Diff(snapshot(a.D), snapshot(b.D), decimalEq); diff != "" {
		t.Errorf("D differs:\n%s", diff)
	}
	if diff := cmp.Diff(snapshot(a.G), snapshot(b.G), decimalEq); diff != "" {
		t.Errorf("G differs:\n%s", diff)
	}

	want, _ := a.GenerateActivations(1)
	got, _ := b.GenerateActivations(1)
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Errorf("generated output differs:\n%s", diff)
	}
	assert.Error(t, b.Load(filepath.Join(dir, "missing.txt")))
}

func TestLoadPartial(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g_only.txt")
	a := New(smallConf(Conditional))

	var buf bytes.Buffer
	if err := mlp.Encode(&buf, a.G); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	conf := smallConf(Conditional)
	conf.Seed = 11
	b := New(conf)
	before := snapshot(b.D)
	assert.NoError(t, b.LoadGenerator(filename))
	err := b.LoadDiscriminator(filename)
	assert.Equal(t, mlp.ErrIncompleteModel, errors.Cause(err))
	assert.False(t, changed(before, snapshot(b.D)), "a failed load leaves the weights alone")
	assert.Equal(t, mlp.ErrIncompleteModel, errors.Cause(b.Load(filename)))
}

type countingEncoder struct {
	encoded, flushed int
	epochs           []int
}

func (c *countingEncoder) Encode(ms digit.MetaState) error {
	c.encoded++
	c.epochs = append(c.epochs, ms.Epoch())
	im, err := ms.Generate(ms.Classes() - 1)
	if err != nil {
		return err
	}
	if im.Bounds().Dx() != digit.Width {
		return errors.Errorf("bad width %d", im.Bounds().Dx())
	}
	return nil
}

func (c *countingEncoder) Flush() error { c.flushed++; return nil }

func digitImage(shade uint8) *image.Gray {
	im := image.NewGray(image.Rect(0, 0, digit.Width, digit.Height))
	for x := 0; x < digit.Width; x++ {
		for y := 0; y < digit.Height; y++ {
			if (x+y)%3 == 0 {
				im.SetGray(x, y, color.Gray{Y: shade})
			} else {
				im.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return im
}

func fakeDecoder(images map[string]image.Image) digit.Decoder {
	return func(path string) (image.Image, error) {
		im, ok := images[path]
		if !ok {
			return nil, errors.Errorf("no such image %q", path)
		}
		return im, nil
	}
}

func TestLearn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "model_weights.txt")
	enc := new(countingEncoder)
	var summaries []EpochSummary

	conf := DefaultConfig()
	conf.Hidden = 2
	conf.Epochs = 2
	conf.Seed = 5
	conf.ModelPath = filename
	conf.OutputEncoder = enc
	conf.Recorder = func(s EpochSummary) error {
		summaries = append(summaries, s)
		return nil
	}
	a := New(conf)

	samples := []digit.Sample{
		{Path: "0/1.png", Label: 0, Key: 1},
		{Path: "3/2.png", Label: 3, Key: 2},
		{Path: "7/3.png", Label: 7, Key: 3},
	}
	images := map[string]image.Image{
		"0/1.png": digitImage(0),
		"3/2.png": digitImage(80),
		"7/3.png": digitImage(160),
	}
	if err := a.Learn(samples, fakeDecoder(images)); err != nil {
		t.Fatalf("%+v", err)
	}

	assert.Equal(t, 2, enc.encoded)
	assert.Equal(t, []int{0, 1}, enc.epochs)
	assert.Equal(t, 1, enc.flushed)

	if assert.Len(t, summaries, 2) {
		assert.Equal(t, 1, summaries[0].Epoch)
		assert.Equal(t, 2, summaries[1].Epoch)
		assert.Equal(t, 3, summaries[1].Samples)
		assert.Equal(t, "cgan", summaries[0].Run)
	}
	assert.Equal(t, []int{1, 2}, a.Epochs)
	assert.Len(t, a.Fool, 2)

	b := New(conf)
	assert.NoError(t, b.Load(filename))
	if diff := cmp.Diff(snapshot(a.G), snapshot(b.G), decimalEq); diff != "" {
		t.Errorf("saved G differs:\n%s", diff)
	}

	im, err := a.Generate(4)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, image.Rect(0, 0, digit.Width, digit.Height), im.Bounds())
}

func TestLearnErrors(t *testing.T) {
	conf := DefaultConfig()
	conf.Hidden = 2
	conf.Epochs = 1
	conf.Seed = 5
	enc := new(countingEncoder)
	conf.OutputEncoder = enc
	a := New(conf)

	err := a.Learn([]digit.Sample{{Path: "missing.png", Label: 1}}, fakeDecoder(nil))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing.png")
	assert.Equal(t, 1, enc.flushed, "the encoder is flushed even when learning fails")

	small := image.NewGray(image.Rect(0, 0, 5, 5))
	err = a.Learn([]digit.Sample{{Path: "small.png", Label: 1}}, fakeDecoder(map[string]image.Image{"small.png": small}))
	assert.Error(t, err)

	conf.Recorder = func(EpochSummary) error { return errors.New("disk full") }
	conf.OutputEncoder = nil
	b := New(conf)
	err = b.Learn([]digit.Sample{{Path: "ok.png", Label: 1}}, fakeDecoder(map[string]image.Image{"ok.png": digitImage(0)}))
	assert.Contains(t, err.Error(), "disk full")
}

func TestLoadValidatesTopology(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "model_weights.txt")
	must(t, New(smallConf(Conditional)).Save(filename))

	b := New(smallConf(Conditional))
	h2 := &b.G.Layers[mlp.Hidden2Layer]
	h2.Units = h2.Units[:len(h2.Units)-1]
	assert.Equal(t, mlp.ErrTopology, errors.Cause(b.Load(filename)))
	assert.Equal(t, mlp.ErrTopology, errors.Cause(b.LoadGenerator(filename)))
	assert.NoError(t, b.LoadDiscriminator(filename))
}

func TestLearnNoSamples(t *testing.T) {
	conf := smallConf(Conditional)
	called := false
	conf.Recorder = func(EpochSummary) error {
		called = true
		return nil
	}
	a := New(conf)
	assert.Equal(t, ErrNoSamples, a.Learn(nil, fakeDecoder(nil)))
	assert.False(t, called, "nothing is recorded for an empty dataset")
	assert.Empty(t, a.Epochs)
}
