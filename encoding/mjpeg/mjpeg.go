package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"log"
	"math"
	"net/http"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/cgan/digit"
	"github.com/mattn/go-mjpeg"
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

// Encoder streams a sheet of generated digits every epoch as a motion jpeg.
// It implements cgan.OutputEncoder and http.Handler.
type Encoder struct {
	H, W int
	font.Drawer

	stream *mjpeg.Stream
	face   font.Face

	padH, padW  int // padding so everything don't start at the topleft
	initialized bool

	mu   sync.RWMutex
	last []byte
}

func (e *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.stream.ServeHTTP(w, r)
}

// ServeSnapshot writes the most recent frame as a single jpeg.
func (e *Encoder) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	last := e.Last()
	if last == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(last)
}

// NewEncoder creates an encoder with an empty stream.
func NewEncoder() *Encoder {
	return &Encoder{
		H:    -1,
		W:    -1,
		padH: 10,
		padW: 10,

		stream: mjpeg.NewStream(),
		Drawer: font.Drawer{
			Src: image.Black,
		},
	}
}

// Encode draws the current state of the run and pushes it to every viewer.
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
		enc.H = 2*dy + sheet.Bounds().Dy() + 2*enc.padH
		enc.initialized = true
	}

	im := image.NewGray(image.Rect(0, 0, enc.W, enc.H))
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

	var b bytes.Buffer
	if err = jpeg.Encode(&b, im, nil); err != nil {
		log.Println(err)
		return err
	}
	frame := b.Bytes()
	enc.mu.Lock()
	enc.last = frame
	enc.mu.Unlock()
	if err = enc.stream.Update(frame); err != nil {
		log.Println(err)
		return err
	}
	return nil
}

// Last is the most recent frame, jpeg encoded.
func (enc *Encoder) Last() []byte {
	enc.mu.RLock()
	defer enc.mu.RUnlock()
	return enc.last
}

func (enc *Encoder) Flush() error { return nil }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
