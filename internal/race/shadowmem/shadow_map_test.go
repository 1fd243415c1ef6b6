package shadowmem

import (
	"sync"
	"testing"

	"github.com/kolkov/bankrace/internal/race/epoch"
)

// TestShadowMemoryGet verifies slot lookup and bounds.
func TestShadowMemoryGet(t *testing.T) {
	sm := NewShadowMemory(4)
	if sm.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", sm.Len())
	}

	vs := sm.Get(2)
	if vs == nil {
		t.Fatal("Get(2) returned nil")
	}
	if vs.W != 0 || vs.GetReadEpoch() != 0 {
		t.Errorf("new cell = %s, want zero", vs)
	}

	vs.W = epoch.NewEpoch(1, 10)
	if sm.Get(2) != vs {
		t.Error("Get(2) returned a different cell on second lookup")
	}
	if sm.Get(2).W != epoch.NewEpoch(1, 10) {
		t.Error("cell state not preserved between lookups")
	}

	for _, slot := range []int{-1, 4, 100} {
		if sm.Get(slot) != nil {
			t.Errorf("Get(%d) = non-nil, want nil", slot)
		}
	}
}

// TestShadowMemoryReset verifies that Reset forgets every access.
func TestShadowMemoryReset(t *testing.T) {
	sm := NewShadowMemory(3)
	for i := 0; i < 3; i++ {
		vs := sm.Get(i)
		vs.W = epoch.NewEpoch(1, uint64(i+1))
		vs.SetReadEpoch(epoch.NewEpoch(2, 5))
	}
	sm.Get(1).PromoteToReadClock(3, epoch.NewEpoch(1, 9))

	sm.Reset()

	for i := 0; i < 3; i++ {
		vs := sm.Get(i)
		if vs.W != 0 || vs.GetReadEpoch() != 0 || vs.IsPromoted() {
			t.Errorf("cell %d after Reset = %s, want zero", i, vs)
		}
	}
}

// TestShadowMemoryConcurrentCells verifies that distinct cells can be locked
// and updated from many goroutines.
func TestShadowMemoryConcurrentCells(t *testing.T) {
	const slots = 64
	sm := NewShadowMemory(slots)

	var wg sync.WaitGroup
	for w := 1; w <= 4; w++ {
		wg.Add(1)
		go func(tid uint16) {
			defer wg.Done()
			for i := 0; i < slots; i++ {
				vs := sm.Get(i)
				vs.Lock()
				vs.W = epoch.NewEpoch(tid, uint64(i+1))
				vs.Unlock()
			}
		}(uint16(w))
	}
	wg.Wait()

	for i := 0; i < slots; i++ {
		if sm.Get(i).W == 0 {
			t.Errorf("cell %d never written", i)
		}
	}
}
