package cgan

import (
	"github.com/gorgonia/cgan/digit"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// EncodeSample decodes the image of s and turns it into input activations.
func EncodeSample(decode digit.Decoder, s digit.Sample) ([]decimal.Decimal, error) {
	img, err := decode(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %v", s)
	}
	pixels, err := digit.Activations(img)
	if err != nil {
		return nil, errors.WithMessage(err, s.Path)
	}
	return pixels, nil
}
