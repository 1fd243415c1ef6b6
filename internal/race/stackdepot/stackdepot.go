// Package stackdepot stores call stacks for conflict reports, deduplicated by
// hash.
//
// A shadow cell keeps only the 64-bit hash of the stack of its last access.
// The stack itself lives once in the Depot, however many accounts were last
// touched from the same call site. For a withdrawal run that is a handful of
// stacks for millions of accounts.
//
// Design (ThreadSanitizer v2 approach):
//   - Fixed-size stack traces (8 frames, 64 bytes per stack)
//   - FNV-1a hash of the program counters as key
//   - sync.Map storage, safe for concurrent capture
//
// Usage:
//
//	d := stackdepot.New()
//	hash := d.Capture(0)
//	...
//	if st := d.Get(hash); st != nil {
//	    fmt.Print(st.Format())
//	}
package stackdepot

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// MaxFrames is the maximum number of stack frames captured.
// Most conflicts are visible in the top 8 frames.
const MaxFrames = 8

// Stack is a captured call stack. Unused entries are zero.
type Stack struct {
	PC [MaxFrames]uintptr
}

// Depot is a deduplicating store of stacks. The zero value is not usable;
// call New.
type Depot struct {
	stacks sync.Map // uint64 hash → *Stack
	unique atomic.Int64
}

// New returns an empty Depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the caller's stack and returns its hash. skip counts
// frames above the caller of Capture: 0 starts at the caller itself.
//
// Returns 0 if no stack is available.
func (d *Depot) Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	// runtime.Callers and Capture itself.
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, exists := d.stacks.Load(hash); exists {
		return hash
	}
	if _, loaded := d.stacks.LoadOrStore(hash, &Stack{PC: pcs}); !loaded {
		d.unique.Add(1)
	}
	return hash
}

// Get returns the stack stored under hash, nil for 0 or an unknown hash.
func (d *Depot) Get(hash uint64) *Stack {
	if hash == 0 {
		return nil
	}
	v, ok := d.stacks.Load(hash)
	if !ok {
		return nil
	}
	return v.(*Stack)
}

// Len returns the number of unique stacks stored.
func (d *Depot) Len() int {
	return int(d.unique.Load())
}

// Reset drops every stored stack.
//
// Not safe for concurrent use with Capture.
func (d *Depot) Reset() {
	d.stacks.Clear()
	d.unique.Store(0)
}

// hashStack computes the FNV-1a hash of program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		_, _ = h.Write(buf[:]) // Write never returns an error for hash.Hash.
	}
	return h.Sum64()
}

// Frames returns the captured program counters without the unused tail.
func (st *Stack) Frames() []uintptr {
	if st == nil {
		return nil
	}
	n := 0
	for n < MaxFrames && st.PC[n] != 0 {
		n++
	}
	return st.PC[:n:n]
}

// Format renders the stack without runtime frames:
//
//	worker.(*Worker).visit()
//	    /path/to/worker.go:45
func (st *Stack) Format() string {
	pcs := st.Frames()
	if len(pcs) == 0 {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(pcs)
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
