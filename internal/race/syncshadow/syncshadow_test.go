package syncshadow

import (
	"testing"

	"github.com/kolkov/bankrace/internal/race/vectorclock"
)

// TestGet_FirstAccess verifies that a fresh guard has no release clock.
func TestGet_FirstAccess(t *testing.T) {
	shadow := NewSyncShadow(3)
	sv := shadow.Get(1)
	if sv == nil {
		t.Fatal("Get(1) returned nil")
	}
	if sv.GetReleaseClock() != nil {
		t.Error("expected nil release clock before the first release")
	}
	if sv.JoinInto(vectorclock.New(3)) {
		t.Error("JoinInto reported a release clock before the first release")
	}
	if shadow.Get(3) != nil || shadow.Get(-1) != nil {
		t.Error("out-of-range slot returned a SyncVar")
	}
}

// TestSetReleaseClock_Snapshot verifies that the release clock is a copy.
func TestSetReleaseClock_Snapshot(t *testing.T) {
	sv := NewSyncShadow(1).Get(0)

	clock := vectorclock.New(3)
	clock.Set(1, 10)
	sv.SetReleaseClock(clock)

	// Later progress of the releasing worker must not leak into the guard.
	clock.Set(1, 99)

	rc := sv.GetReleaseClock()
	if rc.Get(1) != 10 {
		t.Errorf("release clock[1] = %d, want 10", rc.Get(1))
	}

	// Second release reuses the stored clock.
	clock.Set(1, 20)
	sv.SetReleaseClock(clock)
	if got := sv.GetReleaseClock().Get(1); got != 20 {
		t.Errorf("release clock[1] = %d after second release, want 20", got)
	}
}

// TestJoinInto_AcquireEdge verifies Ct := Ct ⊔ Lg.
func TestJoinInto_AcquireEdge(t *testing.T) {
	sv := NewSyncShadow(1).Get(0)

	releaser := vectorclock.New(3)
	releaser.Set(1, 7)
	sv.SetReleaseClock(releaser)

	acquirer := vectorclock.New(3)
	acquirer.Set(2, 4)
	if !sv.JoinInto(acquirer) {
		t.Fatal("JoinInto reported no release clock")
	}
	if acquirer.Get(1) != 7 || acquirer.Get(2) != 4 {
		t.Errorf("acquirer clock = %s, want {1:7, 2:4}", acquirer)
	}
}

// TestGroupState verifies spawn/done/wait accounting and clock merging.
func TestGroupState(t *testing.T) {
	shadow := NewSyncShadow(0)
	g := shadow.Group()

	g.OnSpawn()
	g.OnSpawn()
	if g.Running() != 2 {
		t.Fatalf("Running() = %d, want 2", g.Running())
	}

	w1 := vectorclock.New(3)
	w1.Set(1, 5)
	w2 := vectorclock.New(3)
	w2.Set(2, 8)
	g.OnDone(w1)
	g.OnDone(w2)
	if g.Running() != 0 {
		t.Errorf("Running() = %d after both done, want 0", g.Running())
	}

	coord := vectorclock.New(3)
	coord.Set(0, 3)
	g.JoinInto(coord)
	if coord.Get(0) != 3 || coord.Get(1) != 5 || coord.Get(2) != 8 {
		t.Errorf("coordinator clock after join = %s, want {0:3, 1:5, 2:8}", coord)
	}
}

// TestReset verifies that Reset clears guards and group state.
func TestReset(t *testing.T) {
	shadow := NewSyncShadow(2)
	shadow.Get(0).SetReleaseClock(vectorclock.New(2))
	shadow.Group().OnSpawn()

	shadow.Reset()

	if shadow.Get(0).GetReleaseClock() != nil {
		t.Error("release clock survived Reset")
	}
	if shadow.Group().Running() != 0 {
		t.Error("group state survived Reset")
	}
}
