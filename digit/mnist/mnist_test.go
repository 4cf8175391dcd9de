package mnist

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorgonia/cgan/digit"
	"github.com/stretchr/testify/assert"
	"golang.org/x/image/bmp"
)

func blank(w, h int) *image.Gray {
	im := image.NewGray(image.Rect(0, 0, w, h))
	for i := range im.Pix {
		im.Pix[i] = 255
	}
	return im
}

func writePNG(t *testing.T, path string, img image.Image) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := WritePNG(path, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "3", "12.png"), blank(28, 28))
	writePNG(t, filepath.Join(root, "3", "4.png"), blank(28, 28))
	writePNG(t, filepath.Join(root, "7", "8.png"), blank(28, 28))
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	samples, err := Load(root)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Len(t, samples, 3)
	var keys, labels []int
	for _, s := range samples {
		keys = append(keys, s.Key)
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []int{4, 8, 12}, keys)
	assert.Equal(t, []int{3, 7, 3}, labels)
	assert.Equal(t, filepath.Join(root, "7", "8.png"), samples[1].Path)
}

func TestLoadBadNames(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "3", "abc.png"), blank(28, 28))
	_, err := Load(root)
	assert.Error(t, err)

	root = t.TempDir()
	writePNG(t, filepath.Join(root, "eleven", "1.png"), blank(28, 28))
	_, err = Load(root)
	assert.Error(t, err)

	_, err = Load(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	src := blank(28, 28)
	src.SetGray(1, 1, color.Gray{})
	path := filepath.Join(dir, "1.png")
	writePNG(t, path, src)
	img, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	acts, err := digit.Activations(img)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1.0, acts[1*digit.Height+1].InexactFloat64())
	assert.InDelta(t, 0, acts[0].InexactFloat64(), 1e-12)

	big := filepath.Join(dir, "2.png")
	writePNG(t, big, blank(56, 84))
	img, err = Open(big)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, image.Rect(0, 0, 28, 28), img.Bounds())
}

func TestOpenBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "5.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, blank(28, 28)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 28, img.Bounds().Dx())

	_, err = Open(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
