package digit

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	one   = decimal.NewFromInt(1)
	white = decimal.NewFromInt(255)
)

// Ink maps a pixel to its ink density in [0, 1]: 1 - luma/255. Dark ink on a light
// background gives a high value.
func Ink(c color.Color) decimal.Decimal {
	r, g, b, _ := c.RGBA()
	luma := (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)) / 255.0
	return one.Sub(decimal.NewFromFloat(luma))
}

// Activations converts a Width x Height image into Pixels activations. Pixel (x, y) lands at index x*Height + y.
func Activations(img image.Image) ([]decimal.Decimal, error) {
	b := img.Bounds()
	if b.Dx() != Width || b.Dy() != Height {
		return nil, errors.Errorf("expected a %dx%d image. Got %dx%d", Width, Height, b.Dx(), b.Dy())
	}
	retVal := make([]decimal.Decimal, Pixels)
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			retVal[x*Height+y] = Ink(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return retVal, nil
}

// Image is the inverse of Activations: gray = round(clamp(1-a, 0, 1) * 255), ties to even.
func Image(activations []decimal.Decimal) (*image.Gray, error) {
	if len(activations) != Pixels {
		return nil, errors.Errorf("expected %d activations. Got %d", Pixels, len(activations))
	}
	im := image.NewGray(image.Rect(0, 0, Width, Height))
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			im.SetGray(x, y, color.Gray{Y: Gray(activations[x*Height+y])})
		}
	}
	return im, nil
}

// Gray is the gray level drawn for one activation.
func Gray(a decimal.Decimal) uint8 {
	bg := one.Sub(a)
	if bg.IsNegative() {
		bg = decimal.Zero
	}
	if bg.GreaterThan(one) {
		bg = one
	}
	return uint8(bg.Mul(white).RoundBank(0).IntPart())
}

// OneHot encodes label as n activations.
func OneHot(label, n int) []decimal.Decimal {
	retVal := make([]decimal.Decimal, n)
	for i := range retVal {
		if i == label {
			retVal[i] = one
		} else {
			retVal[i] = decimal.Zero
		}
	}
	return retVal
}
