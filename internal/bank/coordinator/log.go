package coordinator

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	uuid "github.com/satori/go.uuid"
)

var (
	notice = color.New(color.FgYellow, color.Bold)
	clean  = color.New(color.FgGreen)
	alarm  = color.New(color.FgRed, color.Bold)
)

// runLog serializes log output of one run and tags every line with the run ID.
type runLog struct {
	mu sync.Mutex
	w  io.Writer
	id uuid.UUID
}

func newRunLog(w io.Writer, id uuid.UUID) *runLog {
	if w == nil {
		w = io.Discard
	}
	return &runLog{w: w, id: id}
}

// printf writes one line prefixed with the run ID.
//
//nolint:errcheck // best-effort diagnostic output
func (l *runLog) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "run %s: %s\n", l.id, fmt.Sprintf(format, args...))
}

// block writes a banner-delimited block under a colored header.
//
//nolint:errcheck // best-effort diagnostic output
func (l *runLog) block(header *color.Color, title string, body func(w io.Writer)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "==================\n")
	header.Fprintf(l.w, "%s", title)
	fmt.Fprintf(l.w, " [run %s]\n", l.id)
	if body != nil {
		body(l.w)
	}
	fmt.Fprintf(l.w, "==================\n")
}

// raw hands the writer to fn under the lock.
func (l *runLog) raw(fn func(w io.Writer)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.w)
}
