package syncshadow

// SyncShadow holds one SyncVar per shadow slot plus the group state of the run.
//
// Like the account shadow, the slots are allocated once. A guard is always
// looked up by the same slot as the account it protects.
type SyncShadow struct {
	vars  []SyncVar
	group GroupState
}

// NewSyncShadow creates sync shadow memory with n slots.
func NewSyncShadow(n int) *SyncShadow {
	return &SyncShadow{vars: make([]SyncVar, n)}
}

// Get returns the SyncVar for slot, or nil if slot is out of range.
func (s *SyncShadow) Get(slot int) *SyncVar {
	if slot < 0 || slot >= len(s.vars) {
		return nil
	}
	return &s.vars[slot]
}

// Group returns the worker group state.
func (s *SyncShadow) Group() *GroupState {
	return &s.group
}

// Reset clears every release clock and the group state.
//
// Not safe for concurrent use.
func (s *SyncShadow) Reset() {
	for i := range s.vars {
		s.vars[i].Reset()
	}
	s.group = GroupState{}
}
