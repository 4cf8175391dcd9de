package digit

import (
	"image"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// Sheet renders one generated digit per class side by side, each scaled up by scale.
// A gap of scale pixels separates neighbours.
func Sheet(ms MetaState, scale int) (*image.Gray, error) {
	if scale < 1 {
		scale = 1
	}
	n := ms.Classes()
	if n < 1 {
		return nil, errors.Errorf("cannot render a sheet of %d classes", n)
	}
	cell := Width * scale
	gap := scale
	sheet := image.NewGray(image.Rect(0, 0, n*cell+(n-1)*gap, Height*scale))
	for i := range sheet.Pix {
		sheet.Pix[i] = 0xff
	}
	for label := 0; label < n; label++ {
		im, err := ms.Generate(label)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to generate %d", label)
		}
		x := label * (cell + gap)
		dst := image.Rect(x, 0, x+cell, Height*scale)
		xdraw.NearestNeighbor.Scale(sheet, dst, im, im.Bounds(), xdraw.Src, nil)
	}
	return sheet, nil
}
