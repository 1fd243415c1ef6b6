// Package bank runs the concurrent withdrawal experiment.
//
// A set of accounts starts with identical balances. Several workers each walk
// the whole set and, at every account, withdraw a fixed amount if the balance
// covers it. Without a guard the check and the withdrawal are separate steps,
// and two workers can both pass the check before either withdraws: the
// account goes negative. With a per-account guard held across both steps,
// no account ever goes below zero.
//
// # Quick Start
//
//	res, err := bank.Run(ctx, bank.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Banks with less than $0: %d\n", res.Negative)
//
// The reference configuration is 1,000,000 accounts of 200, two workers, a
// withdrawal of 200 and a mutex per account.
//
// # Guards
//
// [GuardMutex] uses a sync.Mutex. [GuardSemaphore] uses a binary
// golang.org/x/sync semaphore, which serves waiters in FIFO order and lets a
// waiting worker give up when its context is cancelled.
//
// # Checking
//
// With Config.Check set, every balance access and guard transfer is fed to a
// FastTrack happens-before checker. Its verdict does not depend on how the
// scheduler interleaved the workers:
//   - guarded runs report no conflicts
//   - unguarded runs with two or more workers report a conflict on every
//     checked account, as long as the initial balance covers one withdrawal
//
// Reports are printed in the layout of Go's race detector:
//
//	==================
//	WARNING: DATA RACE
//	Read at account 17 by worker 2:
//	  ...
//	Previous write at account 17 by worker 1:
//	  ...
//	==================
//
// Config.SampleRate limits checking to one account in N for large sets.
package bank
