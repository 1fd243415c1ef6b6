// Package syncshadow tracks the happens-before edges created by account
// guards and by the worker group of a run.
//
// Guard edges (one SyncVar per checked account):
//
//	Acquire(g):  Ct := Ct ⊔ Lg   (worker clock joins the guard's release clock)
//	             Ct[t]++
//
//	Release(g):  Lg := Ct        (guard release clock = worker clock)
//	             Ct[t]++
//
// Group edges (one GroupState per run):
//
//	Spawn(w):    Cw := Cw ⊔ Cc   (worker starts after everything the coordinator did)
//	Done(w):     D  := D ⊔ Cw    (accumulate finished workers)
//	Wait():      Cc := Cc ⊔ D    (coordinator tally happens after every worker)
//
// Example:
//
//	// Worker 1
//	acct.Acquire(ctx)    // Acquire: C1 ⊔= L_acct
//	acct.Withdraw(200)   // write at C1
//	acct.Release()       // Release: L_acct = C1
//
//	// Worker 2, after worker 1 released
//	acct.Acquire(ctx)    // Acquire: C2 ⊔= L_acct (sees worker 1's write)
//	acct.Balance()       // read at C2, ordered after the write
package syncshadow
