// Package epoch implements the 64-bit logical timestamps used by the
// withdrawal conflict checker.
//
// An Epoch packs a participant ID and that participant's clock into one word:
//   - Top 16 bits: TID (0 is the coordinator, 1..N are workers)
//   - Bottom 48 bits: Clock value
//
// A single account access only needs the epoch of its last writer and reader,
// so the common checks are O(1) comparisons against a vector clock entry.
package epoch

import (
	"strconv"

	"github.com/kolkov/bankrace/internal/race/vectorclock"
)

// Epoch is a 64-bit logical timestamp encoding both TID and clock value.
// Layout: [TID:16][Clock:48]
//
// Example: 0x0002000000000005 is TID=2, Clock=5.
type Epoch uint64

const (
	// TIDBits is the number of bits allocated for the participant ID.
	TIDBits = 16

	// ClockBits is the number of bits allocated for the clock value.
	ClockBits = 48

	// ClockMask extracts the clock value (0x0000FFFFFFFFFFFF).
	ClockMask = (1 << ClockBits) - 1
)

// NewEpoch creates an epoch from a TID and clock value.
// Clock values beyond 48 bits are truncated.
func NewEpoch(tid uint16, clock uint64) Epoch {
	return Epoch(uint64(tid)<<ClockBits | (clock & ClockMask))
}

// Decode extracts the TID and clock value.
func (e Epoch) Decode() (tid uint16, clock uint64) {
	//nolint:gosec // G115: top 16 bits are the TID by construction.
	tid = uint16(e >> ClockBits)
	clock = uint64(e) & ClockMask
	return
}

// TID returns the participant ID of the epoch.
func (e Epoch) TID() uint16 {
	tid, _ := e.Decode()
	return tid
}

// HappensBefore reports whether this epoch is ordered before vc,
// that is clock <= vc[tid].
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// Same reports whether two epochs are identical.
func (e Epoch) Same(other Epoch) bool {
	return e == other
}

// String formats the epoch as "clock@tid", e.g. "42@1".
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(clock, 10) + "@" + strconv.FormatUint(uint64(tid), 10)
}
