package shadowmem

import (
	"sync"

	"github.com/kolkov/bankrace/internal/race/epoch"
	"github.com/kolkov/bankrace/internal/race/vectorclock"
)

// VarState stores the access history of one account balance.
//
// Adaptive representation:
//   - one reader at a time: readEpoch only
//   - overlapping readers: promoted to readClock, one entry per participant
//
// A write demotes back to the epoch form, since it dominates all earlier reads.
//
// The accessors below do not lock. Callers bracket a check-and-update with
// Lock and Unlock.
type VarState struct {
	mu sync.Mutex

	// W is the epoch of the last write, 0 if the balance was never written.
	W epoch.Epoch

	readEpoch epoch.Epoch
	readClock *vectorclock.VectorClock
}

// NewVarState creates a never-accessed cell.
func NewVarState() *VarState {
	return &VarState{}
}

// Lock acquires the cell.
func (vs *VarState) Lock() { vs.mu.Lock() }

// Unlock releases the cell.
func (vs *VarState) Unlock() { vs.mu.Unlock() }

// Reset returns the cell to the never-accessed state.
func (vs *VarState) Reset() {
	vs.W = 0
	vs.readEpoch = 0
	vs.readClock = nil
}

// IsPromoted reports whether reads are tracked by a vector clock.
func (vs *VarState) IsPromoted() bool {
	return vs.readClock != nil
}

// GetReadEpoch returns the single-reader epoch, 0 when promoted or unread.
func (vs *VarState) GetReadEpoch() epoch.Epoch {
	return vs.readEpoch
}

// SetReadEpoch records a read while unpromoted. It is a no-op once promoted.
func (vs *VarState) SetReadEpoch(e epoch.Epoch) {
	if vs.readClock == nil {
		vs.readEpoch = e
	}
}

// PromoteToReadClock switches to vector clock read tracking for a run of n
// participants, keeping the current reader epoch and adding cur.
func (vs *VarState) PromoteToReadClock(n int, cur epoch.Epoch) {
	vs.readClock = vectorclock.New(n)
	if vs.readEpoch != 0 {
		tid, clock := vs.readEpoch.Decode()
		vs.readClock.Set(tid, clock)
	}
	tid, clock := cur.Decode()
	vs.readClock.Set(tid, clock)
	vs.readEpoch = 0
}

// AddReader records a read by cur in the promoted read clock.
func (vs *VarState) AddReader(cur epoch.Epoch) {
	tid, clock := cur.Decode()
	if clock > vs.readClock.Get(tid) {
		vs.readClock.Set(tid, clock)
	}
}

// GetReadClock returns the promoted read clock, nil when unpromoted.
func (vs *VarState) GetReadClock() *vectorclock.VectorClock {
	return vs.readClock
}

// Demote clears all read tracking.
func (vs *VarState) Demote() {
	vs.readEpoch = 0
	vs.readClock = nil
}

// String returns "W:<epoch> R:<epoch>" or "W:<epoch> R:<clock> [PROMOTED]".
func (vs *VarState) String() string {
	wStr := "W:" + vs.W.String()
	if vs.readClock != nil {
		return wStr + " R:" + vs.readClock.String() + " [PROMOTED]"
	}
	return wStr + " R:" + vs.readEpoch.String()
}
