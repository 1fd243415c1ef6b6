package detector

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"

	"github.com/kolkov/bankrace/internal/race/epoch"
)

// AccessType represents the type of balance access (Read or Write).
type AccessType int

const (
	// AccessRead indicates a balance read.
	AccessRead AccessType = iota
	// AccessWrite indicates a balance write.
	AccessWrite
)

// String returns the string representation of an AccessType.
func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Race type constants for deduplication and reporting.
const (
	// RaceTypeWriteWrite indicates two unordered writes.
	RaceTypeWriteWrite = "write-write"
	// RaceTypeReadWrite indicates a write unordered with an earlier read.
	RaceTypeReadWrite = "read-write"
	// RaceTypeWriteRead indicates a read unordered with an earlier write.
	RaceTypeWriteRead = "write-read"
)

const maxStackDepth = 32

// warning is the colored report header. color disables itself when the
// output is not a terminal.
var warning = color.New(color.FgRed, color.Bold)

// AccessInfo describes one side of a conflict.
type AccessInfo struct {
	// Type indicates whether this was a Read or Write.
	Type AccessType

	// Account is the index of the account in the set.
	Account int

	// Worker is the TID of the participant (0 is the coordinator).
	Worker uint16

	// Epoch is the logical timestamp of the access.
	Epoch epoch.Epoch

	// StackTrace holds program counters, only for the current access.
	StackTrace []uintptr
}

// RaceReport describes an unsynchronized pair of accesses to one balance.
type RaceReport struct {
	// Current is the access that triggered detection.
	Current AccessInfo

	// Previous is the earlier conflicting access.
	Previous AccessInfo

	// DeduplicationKey identifies the conflict location.
	// Format: "{type}:{account}:{w1}:{w2}" with w1 <= w2.
	DeduplicationKey string
}

// generateDeduplicationKey builds the key so that a conflict between workers
// A and B on an account is the same no matter which one detected it.
//
// Example:
//
//	key := generateDeduplicationKey(RaceTypeWriteWrite, 17, 2, 1)
//	// "write-write:17:1:2"
func generateDeduplicationKey(raceType string, account int, w1, w2 uint16) string {
	return fmt.Sprintf("%s:%d:%d:%d", raceType, account, min(w1, w2), max(w1, w2))
}

// captureStackTrace captures the current call stack, skipping skip frames.
func captureStackTrace(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

// formatStackTrace renders program counters the way Go's race detector does:
//
//	worker.(*Worker).visit()
//	    /path/to/worker.go:15 +0x3b
//
// Runtime frames and the detector's own frames are dropped.
func formatStackTrace(pcs []uintptr) string {
	if len(pcs) == 0 {
		return "  (no stack trace available)\n"
	}

	frames := runtime.CallersFrames(pcs)
	var buf strings.Builder

	for {
		frame, more := frames.Next()

		if strings.HasPrefix(frame.Function, "runtime.") || isDetectorFrame(frame.Function) {
			if !more {
				break
			}
			continue
		}

		fmt.Fprintf(&buf, "  %s()\n      %s:%d +0x%x\n", frame.Function, frame.File, frame.Line, frame.PC&0xfff)

		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  (all frames filtered - runtime internal)\n"
	}
	return buf.String()
}

// isDetectorFrame reports whether fn is part of the detector's own call path.
func isDetectorFrame(fn string) bool {
	const pkg = "/internal/race/detector."
	i := strings.LastIndex(fn, pkg)
	if i < 0 {
		return false
	}
	switch name := fn[i+len(pkg):]; {
	case strings.HasPrefix(name, "(*Detector)."),
		name == "captureStackTrace",
		name == "NewRaceReport",
		name == "FormatStack":
		return true
	}
	return false
}

// FormatStack captures and formats the caller's stack. skip counts frames
// above the caller of FormatStack.
func FormatStack(skip int) string {
	return formatStackTrace(captureStackTrace(skip + 3))
}

// NewRaceReport creates a report from the two epochs of a conflict and
// captures the current stack. The previous stack is not recorded by the
// shadow cells and is left empty.
func NewRaceReport(raceType string, account int, prevEpoch, currEpoch epoch.Epoch) *RaceReport {
	report := &RaceReport{
		Current: AccessInfo{
			Account:    account,
			Worker:     currEpoch.TID(),
			Epoch:      currEpoch,
			StackTrace: captureStackTrace(3),
		},
		Previous: AccessInfo{
			Account: account,
			Worker:  prevEpoch.TID(),
			Epoch:   prevEpoch,
		},
	}

	switch raceType {
	case RaceTypeReadWrite:
		report.Current.Type = AccessWrite
		report.Previous.Type = AccessRead
	case RaceTypeWriteRead:
		report.Current.Type = AccessRead
		report.Previous.Type = AccessWrite
	default:
		report.Current.Type = AccessWrite
		report.Previous.Type = AccessWrite
	}

	report.DeduplicationKey = generateDeduplicationKey(raceType, account, prevEpoch.TID(), currEpoch.TID())
	return report
}

// Format writes the report in the layout of Go's race detector:
//
//	==================
//	WARNING: DATA RACE
//	Write at account 17 by worker 2:
//	  worker.(*Worker).visit()
//	      /path/to/worker.go:80 +0x48
//	  [epoch: 12@2]
//
//	Previous read at account 17 by worker 1:
//	  (previous access stack trace not available)
//	  [epoch: 11@1]
//	==================
//
//nolint:errcheck // best-effort diagnostic output
func (r *RaceReport) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	warning.Fprintln(w, "WARNING: DATA RACE")

	fmt.Fprintf(w, "%s at account %d by worker %d:\n", r.Current.Type, r.Current.Account, r.Current.Worker)
	if len(r.Current.StackTrace) > 0 {
		fmt.Fprint(w, formatStackTrace(r.Current.StackTrace))
	} else {
		fmt.Fprintf(w, "  (no stack trace captured)\n")
	}
	fmt.Fprintf(w, "  [epoch: %s]\n\n", r.Current.Epoch)

	fmt.Fprintf(w, "Previous %s at account %d by worker %d:\n",
		strings.ToLower(r.Previous.Type.String()), r.Previous.Account, r.Previous.Worker)
	if len(r.Previous.StackTrace) > 0 {
		fmt.Fprint(w, formatStackTrace(r.Previous.StackTrace))
	} else {
		fmt.Fprintf(w, "  (previous access stack trace not available)\n")
	}
	fmt.Fprintf(w, "  [epoch: %s]\n", r.Previous.Epoch)

	fmt.Fprintf(w, "==================\n")
}

// String returns the formatted report.
func (r *RaceReport) String() string {
	var buf strings.Builder
	r.Format(&buf)
	return buf.String()
}
