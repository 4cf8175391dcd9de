package mlp

import (
	"bytes"
	"fmt"
	"sync"
)

// forEach runs body(i) for i in [0, length). With more than one worker the range is split
// into contiguous chunks, one goroutine each, and forEach returns once all of them finish.
func forEach(length, workers int, body func(i int)) {
	if workers <= 1 || length < 2 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}
	if workers > length {
		workers = length
	}
	chunk := (length + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < length; start += chunk {
		end := start + chunk
		if end > length {
			end = length
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				body(i)
			}
		}(start, end)
	}
	wg.Wait()
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
