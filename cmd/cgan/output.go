package main

import (
	"bytes"
	"fmt"

	"github.com/gorgonia/cgan"
	"github.com/gorgonia/cgan/digit"
)

// multiEncoder fans every epoch out to several output encoders.
type multiEncoder []cgan.OutputEncoder

func (m multiEncoder) Encode(ms digit.MetaState) error {
	var errs manyErr
	for _, enc := range m {
		if err := enc.Encode(ms); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m multiEncoder) Flush() error {
	var errs manyErr
	for _, enc := range m {
		if err := enc.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
