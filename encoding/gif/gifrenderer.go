package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/cgan/digit"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi             = 144.0
	fontsize        = 12.0
	lineheight      = 1.2
	dummyLongString = `Epoch 100000`
	scale           = 4
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

var globPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{uint8(i)}
	}
	return p
}()

// Encoder renders a sheet of generated digits every epoch, one frame each.
// It implements cgan.OutputEncoder.
type Encoder struct {
	H, W int
	font.Drawer

	out *gif.GIF
	io.Writer
	face font.Face

	padH, padW  int // padding so everything don't start at the topleft
	initialized bool
}

// NewGifEncoder writes the animation into w on Flush.
func NewGifEncoder(w io.Writer) *Encoder {
	return &Encoder{
		H:    -1,
		W:    -1,
		padH: 10,
		padW: 10,

		Writer: w,
		Drawer: font.Drawer{
			Src: image.Black,
		},
		out: &gif.GIF{LoopCount: 0},
	}
}

// Encode draws the current state of the run as the next frame.
func (enc *Encoder) Encode(ms digit.MetaState) error {
	sheet, err := digit.Sheet(ms, scale)
	if err != nil {
		return err
	}
	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))

	if !enc.initialized {
		// lazy init of the frame layout
		enc.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		enc.Drawer.Face = enc.face

		textW := maxInt(font.MeasureString(enc.Face, ms.Name()).Ceil(), font.MeasureString(enc.Face, dummyLongString).Ceil())
		enc.W = maxInt(textW, sheet.Bounds().Dx()) + 2*enc.padW
		enc.H = 2*dy + sheet.Bounds().Dy() + 2*enc.padH // two lines of text above the sheet
		enc.initialized = true
	}

	im := image.NewPaletted(image.Rect(0, 0, enc.W, enc.H), globPalette)
	draw.Draw(im, im.Bounds(), image.White, image.Point{}, draw.Src)

	enc.Dst = im
	y := enc.padH + dy
	enc.Dot = fixed.P(enc.padW, y)
	enc.DrawString(ms.Name())
	y += dy
	enc.Dot = fixed.P(enc.padW, y)
	enc.DrawString(fmt.Sprintf("Epoch %d", ms.Epoch()+1))

	top := enc.padH + 2*dy
	draw.Draw(im, sheet.Bounds().Add(image.Pt(enc.padW, top)), sheet, image.Point{}, draw.Src)

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, 100)
	return nil
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return nil
	}
	return gif.EncodeAll(enc.Writer, enc.out)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
