// Package detector checks a withdrawal run for unsynchronized account access.
//
// Workers report every balance read and write, and every guard acquire and
// release, for the accounts they visit. The detector applies the FastTrack
// happens-before rules (PLDI 2009) to those events: two accesses to the same
// balance by different workers conflict when neither is ordered before the
// other and at least one is a write.
//
// Unlike a schedule-dependent symptom such as a negative balance, the result
// does not depend on how the workers happened to interleave:
//
//   - guarded runs produce no conflicts, because every access sits between an
//     Acquire and a Release of the account's guard
//   - unguarded runs with two or more workers produce one conflict for every
//     checked account whose balance covers a withdrawal, since each such
//     account is read by every worker and written by at least one
//
// # Architecture
//
//  1. Per-participant logical time (goroutine.RaceContext)
//  2. Per-account shadow cells (shadowmem.VarState)
//  3. Per-guard release clocks and the spawn/join edges (syncshadow)
//  4. Account sampling (Sampler) to bound memory on large runs
//  5. Optional access history (stackdepot) for the previous-access stack
//
// # Rules
//
// Write [FT WRITE]:
//
//  1. Same epoch as the last write: nothing to check
//  2. Write-write conflict if the last write is not ordered before ctx
//  3. Read-write conflict if any recorded read is not ordered before ctx
//  4. vs.W = ctx epoch, reads cleared, clock advanced
//
// Read [FT READ]:
//
//  1. Write-read conflict if the last write is not ordered before ctx
//  2. Same reader or ordered reader: replace the read epoch
//  3. Overlapping readers: promote to a read clock
//  4. Clock advanced
//
// Each account cell is checked and updated under its own lock, so conflicts
// are counted exactly once per account no matter how many workers collide.
package detector
