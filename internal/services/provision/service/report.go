package service

import (
	"fmt"
	"io"
	"sync"
)

// reporter serializes operator progress lines from concurrent workers
type reporter struct {
	mu sync.Mutex
	w  io.Writer
}

func newReporter(w io.Writer) *reporter {
	if w == nil {
		w = io.Discard
	}
	return &reporter{w: w}
}

// Printf writes one line; the newline is added here
func (r *reporter) Printf(format string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, format+"\n", a...)
}
