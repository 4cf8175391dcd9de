// Package digit holds the domain types shared by the trainer, the dataset and the output encoders:
// samples, image geometry and the mapping between pixels and network activations.
package digit

import (
	"fmt"
	"image"
	"sort"
)

const (
	Width   = 28
	Height  = 28
	Pixels  = Width * Height
	Classes = 10
)

// Sample is one training or test image.
type Sample struct {
	Path  string
	Label int
	Key   int // orders samples deterministically before any shuffle
}

func (s Sample) Format(f fmt.State, c rune) { fmt.Fprintf(f, "%d@%s", s.Label, s.Path) }

// SortByKey sorts samples by Key, keeping the relative order of equal keys.
func SortByKey(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Key < samples[j].Key })
}

// Limit returns the first max samples. A max of 0 or less means no limit.
func Limit(samples []Sample, max int) []Sample {
	if max > 0 && max < len(samples) {
		return samples[:max]
	}
	return samples
}

// Decoder yields the image stored at path.
type Decoder func(path string) (image.Image, error)

// MetaState is the state of a training run as seen by an output encoder.
type MetaState interface {
	Name() string
	Epoch() int
	Classes() int
	Generate(label int) (*image.Gray, error)
}
