package syncshadow

import (
	"sync"

	"github.com/kolkov/bankrace/internal/race/vectorclock"
)

// SyncVar holds the release clock of one account guard.
//
// The guard itself already orders Release before the next Acquire, so mu only
// protects against a misused guard (for example a Release from a worker that
// never acquired it) tearing the clock.
type SyncVar struct {
	mu sync.Mutex

	// releaseClock is the clock of the last Release, nil before the first one.
	releaseClock *vectorclock.VectorClock
}

// GetReleaseClock returns a snapshot of the release clock, nil if the guard was
// never released.
func (sv *SyncVar) GetReleaseClock() *vectorclock.VectorClock {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.releaseClock == nil {
		return nil
	}
	return sv.releaseClock.Clone()
}

// JoinInto merges the release clock into clock, allocation-free.
// It reports whether a release clock existed.
func (sv *SyncVar) JoinInto(clock *vectorclock.VectorClock) bool {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.releaseClock == nil {
		return false
	}
	clock.Join(sv.releaseClock)
	return true
}

// SetReleaseClock stores a copy of clock as the release clock (Lg := Ct).
// The backing slice is reused after the first release.
func (sv *SyncVar) SetReleaseClock(clock *vectorclock.VectorClock) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.releaseClock == nil {
		sv.releaseClock = clock.Clone()
		return
	}
	sv.releaseClock.CopyFrom(clock)
}

// Reset forgets the release clock.
func (sv *SyncVar) Reset() {
	sv.mu.Lock()
	sv.releaseClock = nil
	sv.mu.Unlock()
}

// GroupState tracks the spawn/join edges of the worker group.
type GroupState struct {
	mu sync.Mutex

	// doneClock accumulates the clocks of finished workers.
	doneClock *vectorclock.VectorClock

	// running is the number of spawned workers that have not called Done.
	running int
}

// OnSpawn records that a worker was started.
func (g *GroupState) OnSpawn() {
	g.mu.Lock()
	g.running++
	g.mu.Unlock()
}

// OnDone merges a finished worker's clock into the done clock.
func (g *GroupState) OnDone(clock *vectorclock.VectorClock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.doneClock == nil {
		g.doneClock = clock.Clone()
	} else {
		g.doneClock.Join(clock)
	}
	g.running--
}

// JoinInto merges the done clock into clock.
func (g *GroupState) JoinInto(clock *vectorclock.VectorClock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.doneClock != nil {
		clock.Join(g.doneClock)
	}
}

// Running returns the number of workers spawned but not done.
func (g *GroupState) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
