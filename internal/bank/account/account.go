package account

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Account is one balance. The balance may go negative, which only happens
// when check and withdraw are not done under the guard.
type Account struct {
	balance atomic.Int64
	guard   Guard
}

// New returns an account holding balance. guard may be nil.
func New(balance int64, guard Guard) *Account {
	a := &Account{guard: guard}
	a.balance.Store(balance)
	return a
}

// Balance returns the current balance.
func (a *Account) Balance() int64 {
	return a.balance.Load()
}

// Withdraw subtracts amount unconditionally. The caller checks the balance
// first.
func (a *Account) Withdraw(amount int64) {
	a.balance.Add(-amount)
}

// Guarded reports whether the account has a guard.
func (a *Account) Guarded() bool {
	return a.guard != nil
}

// Acquire takes the account's guard. It is a no-op on an unguarded account.
func (a *Account) Acquire(ctx context.Context) error {
	if a.guard == nil {
		return nil
	}
	return a.guard.Acquire(ctx)
}

// Release gives the account's guard up.
func (a *Account) Release() {
	if a.guard != nil {
		a.guard.Release()
	}
}

// Set is the fixed, ordered collection of accounts shared by all workers.
// It is never resized.
type Set struct {
	accounts []Account
}

// NewSet builds n accounts holding balance each. When guarded, every account
// gets its own guard of the given kind.
func NewSet(n int, balance int64, guarded bool, kind Kind) (*Set, error) {
	if n < 0 {
		return nil, fmt.Errorf("account: negative set size %d", n)
	}
	if guarded {
		if _, err := ParseKind(string(kind)); err != nil {
			return nil, fmt.Errorf("account: %w", err)
		}
	}

	s := &Set{accounts: make([]Account, n)}
	var mutexes []MutexGuard
	if guarded && kind != KindSemaphore {
		mutexes = make([]MutexGuard, n)
	}
	for i := range s.accounts {
		a := &s.accounts[i]
		a.balance.Store(balance)
		switch {
		case !guarded:
		case mutexes != nil:
			a.guard = &mutexes[i]
		default:
			a.guard = NewSemaphoreGuard()
		}
	}
	return s, nil
}

// Len returns the number of accounts.
func (s *Set) Len() int {
	return len(s.accounts)
}

// At returns account i.
func (s *Set) At(i int) *Account {
	return &s.accounts[i]
}

// Balances returns a snapshot of every balance, in order.
func (s *Set) Balances() []int64 {
	out := make([]int64, len(s.accounts))
	for i := range s.accounts {
		out[i] = s.accounts[i].Balance()
	}
	return out
}
