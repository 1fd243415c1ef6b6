// Package account holds the shared balances of a withdrawal run.
//
// An Account is a single signed balance with an optional Guard. Balance and
// Withdraw are each atomic on their own, but a check followed by a withdraw is
// not: two workers can both see 200 and both take 200. Holding the account's
// guard across the check and the withdraw is what makes the pair atomic.
//
// Two guard kinds are available:
//
//	KindMutex      sync.Mutex, the default
//	KindSemaphore  binary golang.org/x/sync/semaphore, FIFO and cancellable
//
// Both tolerate a Release without a matching Acquire: the guard never hands
// out more than one permit.
package account
