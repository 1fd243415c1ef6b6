// Package worker implements the withdrawal traversal.
//
// A Worker walks the whole shared account set in index order. At each
// account it takes the guard (if the account has one), reads the balance,
// withdraws a fixed amount when the balance covers it, and gives the guard
// back. Workers are not partitioned: every worker visits every account.
package worker

import (
	"context"
	"fmt"

	"github.com/kolkov/bankrace/internal/bank/account"
)

// Tracer observes a worker's accesses. Calls are made from the worker's
// goroutine, in program order.
type Tracer interface {
	// Acquired is called right after the account's guard was taken.
	Acquired(account int)
	// Read is called before the balance is read.
	Read(account int)
	// Write is called before the balance is decremented.
	Write(account int)
	// Releasing is called right before the account's guard is given back.
	Releasing(account int)
}

// Config configures a Worker.
type Config struct {
	// ID identifies the worker in errors and logs. Workers are numbered from 1.
	ID int

	// Amount is withdrawn from every account whose balance is at least Amount.
	Amount int64

	// BetweenCheckAndAct, when set, runs after a successful check and before
	// the withdrawal, with the guard (if any) still held.
	BetweenCheckAndAct func(account int)

	// Tracer, when set, receives every access.
	Tracer Tracer
}

// Stats counts what one traversal did.
type Stats struct {
	Visited     int // accounts whose balance was checked
	Withdrawals int // checks that led to a withdrawal
	Declined    int // checks that found too little money
}

// Worker performs one traversal of a Set.
type Worker struct {
	cfg   Config
	set   *account.Set
	stats Stats
}

// New returns a worker over set. The set is borrowed for the duration of Run.
func New(set *account.Set, cfg Config) *Worker {
	return &Worker{cfg: cfg, set: set}
}

// ID returns the worker's identifier.
func (w *Worker) ID() int { return w.cfg.ID }

// Stats returns the traversal counters. Only meaningful after Run returned.
func (w *Worker) Stats() Stats { return w.stats }

// Run visits every account in order. It stops early only when ctx is done
// while waiting for a guard, and then returns an *InterruptedError.
func (w *Worker) Run(ctx context.Context) error {
	for i := 0; i < w.set.Len(); i++ {
		if err := w.visit(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) visit(ctx context.Context, i int) error {
	a := w.set.At(i)
	t := w.cfg.Tracer

	if a.Guarded() {
		if err := a.Acquire(ctx); err != nil {
			return &InterruptedError{Worker: w.cfg.ID, Account: i, Err: err}
		}
		defer a.Release()
		if t != nil {
			t.Acquired(i)
			defer t.Releasing(i)
		}
	}

	if t != nil {
		t.Read(i)
	}
	balance := a.Balance()
	w.stats.Visited++

	if balance < w.cfg.Amount {
		w.stats.Declined++
		return nil
	}

	if w.cfg.BetweenCheckAndAct != nil {
		w.cfg.BetweenCheckAndAct(i)
	}

	if t != nil {
		t.Write(i)
	}
	a.Withdraw(w.cfg.Amount)
	w.stats.Withdrawals++
	return nil
}

// InterruptedError reports a traversal that ended because its context was
// done while the worker waited for a guard.
type InterruptedError struct {
	Worker  int   // worker ID
	Account int   // index of the account being waited on
	Err     error // ctx.Err() at the time
}

// Error implements the error interface.
func (e *InterruptedError) Error() string {
	return fmt.Sprintf("worker %d interrupted waiting for account %d: %v", e.Worker, e.Account, e.Err)
}

// Unwrap returns the context error.
func (e *InterruptedError) Unwrap() error {
	return e.Err
}
