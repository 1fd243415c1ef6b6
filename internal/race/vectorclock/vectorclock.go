// Package vectorclock implements vector clocks sized to the participants of a
// single withdrawal run.
//
// A run has a fixed, small set of participants: the coordinator (TID 0) and
// one TID per worker. Clocks are therefore plain slices of that length rather
// than a fixed global array, which keeps a per-account release clock at a few
// bytes even for a million accounts.
//
// Key operations:
//   - Join: point-wise maximum, used on guard acquire and on worker join
//   - LessOrEqual: partial order, used for conflict checks
package vectorclock

import (
	"strconv"
	"strings"
)

// VectorClock represents logical time across the participants of a run.
// vc[tid] is the clock value for participant tid.
type VectorClock []uint64

// New creates a zero-initialized vector clock for n participants.
func New(n int) *VectorClock {
	vc := make(VectorClock, n)
	return &vc
}

// Len returns the number of participants the clock tracks.
func (vc *VectorClock) Len() int {
	return len(*vc)
}

// Clone creates a deep copy of the vector clock.
func (vc *VectorClock) Clone() *VectorClock {
	c := make(VectorClock, len(*vc))
	copy(c, *vc)
	return &c
}

// CopyFrom overwrites vc with the values of other without allocating when the
// lengths match.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	if len(*vc) != len(*other) {
		*vc = make(VectorClock, len(*other))
	}
	copy(*vc, *other)
}

// Join performs point-wise maximum: vc = vc ⊔ other.
//
// Ct := Ct ⊔ Lm on guard acquire, Cparent := Cparent ⊔ Cchild on join.
func (vc *VectorClock) Join(other *VectorClock) {
	dst := *vc
	for i, v := range *other {
		if i >= len(dst) {
			break
		}
		if v > dst[i] {
			dst[i] = v
		}
	}
}

// LessOrEqual checks vc ⊑ other: vc[i] <= other[i] for every participant.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i, v := range *vc {
		if v > other.Get(uint16(i)) { //nolint:gosec // G115: run size is bounded by MaxParticipants.
			return false
		}
	}
	return true
}

// HappensBefore is an alias for LessOrEqual.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock for tid.
func (vc *VectorClock) Increment(tid uint16) {
	(*vc)[tid]++
}

// Get returns the clock value for tid, or 0 when tid is outside the clock.
func (vc *VectorClock) Get(tid uint16) uint64 {
	if int(tid) >= len(*vc) {
		return 0
	}
	return (*vc)[tid]
}

// Set sets the clock value for tid.
func (vc *VectorClock) Set(tid uint16, clock uint64) {
	(*vc)[tid] = clock
}

// String returns "{tid:clock, ...}" for the non-zero entries.
func (vc *VectorClock) String() string {
	var parts []string
	for i, v := range *vc {
		if v != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(v, 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
