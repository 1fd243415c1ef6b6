// Package shadowmem implements shadow cells for the accounts of a run.
//
// Every checked account has one VarState recording the epoch of its last
// balance write and the epoch (or, for overlapping readers, the vector clock)
// of its last balance reads. The conflict checker compares these against the
// clock of the worker performing the next access: if the earlier access is not
// ordered before the current one and at least one of them is a write, the two
// workers touched the account without synchronization.
//
// # Components
//
// VarState: one shadow cell. Its lock makes a check-and-update of the cell
// atomic; it is internal to the checker and never ordered with the account
// guards.
//
// ShadowMemory: a fixed slice of cells indexed by shadow slot. The slot of an
// account is decided by the checker (see detector sampling), so the shadow
// never grows after construction and lookups are plain indexing.
//
// # Usage
//
//	sm := shadowmem.NewShadowMemory(accounts)
//	vs := sm.Get(slot)
//	vs.Lock()
//	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
//	    // write-read conflict
//	}
//	vs.SetReadEpoch(ctx.GetEpoch())
//	vs.Unlock()
package shadowmem
