package goroutine

import (
	"github.com/kolkov/bankrace/internal/race/epoch"
	"github.com/kolkov/bankrace/internal/race/vectorclock"
)

// RaceContext is the logical time of one participant.
//
// Invariant: Epoch == epoch.NewEpoch(TID, C[TID]). IncrementClock and Sync
// are the only mutators and both maintain it.
type RaceContext struct {
	// TID is the participant identifier.
	TID uint16

	// C is the full vector clock of the participant.
	C *vectorclock.VectorClock

	// Epoch caches C[TID].
	Epoch epoch.Epoch
}

// Alloc creates a context for participant tid in a run of n participants.
//
// The own clock starts at 1, not 0. A zero clock would make the first access
// of a participant look ordered before every other participant, since their
// view of it is also 0.
//
// Example:
//
//	ctx := Alloc(1, 3)
//	// ctx.C = {1:1}, ctx.Epoch = 1@1
func Alloc(tid uint16, n int) *RaceContext {
	ctx := &RaceContext{
		TID: tid,
		C:   vectorclock.New(n),
	}
	ctx.C.Set(tid, 1)
	ctx.Epoch = epoch.NewEpoch(tid, 1)
	return ctx
}

// IncrementClock advances the participant's own clock and refreshes the epoch.
func (rc *RaceContext) IncrementClock() {
	rc.C.Increment(rc.TID)
	rc.Epoch = epoch.NewEpoch(rc.TID, rc.C.Get(rc.TID))
}

// Sync recomputes the cached epoch after C was modified directly, e.g. by a
// Join that cannot change C[TID] but is followed by callers that set it.
func (rc *RaceContext) Sync() {
	rc.Epoch = epoch.NewEpoch(rc.TID, rc.C.Get(rc.TID))
}

// GetEpoch returns the cached epoch.
func (rc *RaceContext) GetEpoch() epoch.Epoch {
	return rc.Epoch
}
