// Package history keeps a per-epoch record of training runs.
package history

import (
	"context"
	"time"
)

// Record is the summary of one finished epoch of a run.
type Record struct {
	Run     string
	Epoch   int
	Samples int

	Real, Fake, Fool float32 // mean realness per phase
	Accuracy         float32 // classifier runs only
	Elapsed          time.Duration
}

// Store persists epoch records. Saving the same run and epoch twice replaces the first record.
type Store interface {
	Init(ctx context.Context) error
	SaveEpoch(ctx context.Context, rec Record) error
	GetHistory(ctx context.Context, run string) ([]Record, bool, error)
	Runs(ctx context.Context) ([]string, error)
}
