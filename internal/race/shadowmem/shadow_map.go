package shadowmem

// ShadowMemory holds one VarState per shadow slot.
//
// The cells live in a single slice allocated up front: the account set of a
// run never grows, so there is nothing to insert concurrently and a slot
// lookup needs no synchronization.
type ShadowMemory struct {
	cells []VarState
}

// NewShadowMemory creates shadow memory with n slots.
func NewShadowMemory(n int) *ShadowMemory {
	return &ShadowMemory{cells: make([]VarState, n)}
}

// Len returns the number of slots.
func (sm *ShadowMemory) Len() int {
	return len(sm.cells)
}

// Get returns the cell for slot, or nil if slot is out of range.
func (sm *ShadowMemory) Get(slot int) *VarState {
	if slot < 0 || slot >= len(sm.cells) {
		return nil
	}
	return &sm.cells[slot]
}

// Reset returns every cell to the never-accessed state.
//
// Not safe for concurrent use with accesses.
func (sm *ShadowMemory) Reset() {
	for i := range sm.cells {
		sm.cells[i].Reset()
	}
}
