package cgan

import "github.com/gorgonia/cgan/digit"

// nopEncoder is used when no OutputEncoder is configured.
type nopEncoder struct{}

func (nopEncoder) Encode(ms digit.MetaState) error { return nil }
func (nopEncoder) Flush() error                    { return nil }
