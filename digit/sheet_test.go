package digit

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type sheetState struct{ fail bool }

func (s sheetState) Name() string { return "sheet" }
func (s sheetState) Epoch() int   { return 0 }
func (s sheetState) Classes() int { return 3 }
func (s sheetState) Generate(label int) (*image.Gray, error) {
	if s.fail && label == 2 {
		return nil, errors.New("boom")
	}
	im := image.NewGray(image.Rect(0, 0, Width, Height))
	im.Pix[0] = uint8(label)
	return im, nil
}

func TestSheet(t *testing.T) {
	sheet, err := Sheet(sheetState{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 3*Width*2+2*2, sheet.Bounds().Dx())
	assert.Equal(t, Height*2, sheet.Bounds().Dy())

	// cell origins carry the label, gaps stay white
	assert.Equal(t, uint8(0), sheet.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(1), sheet.GrayAt(Width*2+2, 0).Y)
	assert.Equal(t, uint8(1), sheet.GrayAt(Width*2+3, 1).Y)
	assert.Equal(t, uint8(2), sheet.GrayAt(2*(Width*2+2), 0).Y)
	assert.Equal(t, uint8(0xff), sheet.GrayAt(Width*2, 0).Y)

	_, err = Sheet(sheetState{fail: true}, 1)
	assert.Error(t, err)
}
