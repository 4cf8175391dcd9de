package cgan

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/chewxy/math32"
	"gorgonia.org/vecf32"
)

// Statistics keeps the mean realness of every phase, one entry per finished epoch.
type Statistics struct {
	Epochs []int
	Real   []float32
	Fake   []float32
	Fool   []float32

	// running scores of the current epoch
	real, fake, fool []float32
}

func makeStatistics() Statistics {
	return Statistics{
		Epochs: make([]int, 0, 16),
		Real:   make([]float32, 0, 16),
		Fake:   make([]float32, 0, 16),
		Fool:   make([]float32, 0, 16),
	}
}

func (s *Statistics) observe(res StepResult) {
	s.real = append(s.real, float32(res.Real.InexactFloat64()))
	s.fake = append(s.fake, float32(res.Fake.InexactFloat64()))
	s.fool = append(s.fool, float32(res.Fool.InexactFloat64()))
}

// update closes the current epoch.
func (s *Statistics) update(run string, epoch int, elapsed time.Duration) EpochSummary {
	summary := EpochSummary{
		Run:     run,
		Epoch:   epoch,
		Samples: len(s.real),
		Real:    mean(s.real),
		Fake:    mean(s.fake),
		Fool:    mean(s.fool),
		Elapsed: elapsed,
	}
	s.Epochs = append(s.Epochs, epoch)
	s.Real = append(s.Real, summary.Real)
	s.Fake = append(s.Fake, summary.Fake)
	s.Fool = append(s.Fool, summary.Fool)
	s.real, s.fake, s.fool = s.real[:0], s.fake[:0], s.fool[:0]
	return summary
}

// Dump writes one CSV row per epoch.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"epoch", "real", "fake", "fool"}); err != nil {
		return err
	}
	records := make([][]string, 0, len(s.Epochs))
	for i, e := range s.Epochs {
		records = append(records, []string{
			strconv.Itoa(e),
			strconv.FormatFloat(float64(s.Real[i]), 'f', 3, 32),
			strconv.FormatFloat(float64(s.Fake[i]), 'f', 3, 32),
			strconv.FormatFloat(float64(s.Fool[i]), 'f', 3, 32),
		})
	}
	// WriteAll flushes
	return w.WriteAll(records)
}

// mean is NaN for an empty epoch. Scores that are not finite are skipped.
func mean(a []float32) float32 {
	if !validScores(a) {
		finite := make([]float32, 0, len(a))
		for _, v := range a {
			if !math32.IsNaN(v) && !math32.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
		a = finite
	}
	if len(a) == 0 {
		return math32.NaN()
	}
	return vecf32.Sum(a) / float32(len(a))
}

func validScores(a []float32) bool {
	for _, v := range a {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
