// Package mnist reads digit datasets laid out as <root>/<label>/<key>.<ext>, the layout of the
// PNG distribution of MNIST.
package mnist

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorgonia/cgan/digit"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

var _ digit.Decoder = Open

// Load lists every sample below root, sorted by key. Each directory below root is a label and
// each file in it a sample whose name, up to the first dot, is its key.
func Load(root string) ([]digit.Sample, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read dataset %s", root)
	}

	var samples []digit.Sample
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		dirPath := filepath.Join(root, dir.Name())
		label, err := strconv.Atoi(dir.Name())
		if err != nil || label < 0 || label >= digit.Classes {
			return nil, errors.Errorf("%s is not a label directory", dirPath)
		}
		log.Println(dirPath)

		files, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", dirPath)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			path := filepath.Join(dirPath, f.Name())
			key, err := strconv.Atoi(strings.SplitN(f.Name(), ".", 2)[0])
			if err != nil {
				return nil, errors.Errorf("%s is not named by a numeric key", path)
			}
			samples = append(samples, digit.Sample{Path: path, Label: label, Key: key})
		}
	}
	digit.SortByKey(samples)
	return samples, nil
}

// Open decodes a PNG, JPEG, GIF or BMP image. Images that are not digit.Width x digit.Height are rescaled.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}
	if b := img.Bounds(); b.Dx() == digit.Width && b.Dy() == digit.Height {
		return img, nil
	}
	return Rescale(img), nil
}

// Rescale resamples img to digit.Width x digit.Height.
func Rescale(img image.Image) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, digit.Width, digit.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WritePNG writes img to path as a PNG file.
func WritePNG(path string, img image.Image) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.WithStack(cerr)
		}
	}()
	return errors.Wrapf(png.Encode(f, img), "unable to encode %s", path)
}
