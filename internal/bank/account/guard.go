package account

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Guard grants exclusive access to one account.
type Guard interface {
	// Acquire blocks until the guard is held. It returns ctx.Err() if ctx
	// is done before the guard could be taken.
	Acquire(ctx context.Context) error

	// Release gives the guard up. Releasing a guard that is not held does
	// nothing.
	Release()
}

// Kind names a Guard implementation.
type Kind string

const (
	// KindMutex guards with a sync.Mutex.
	KindMutex Kind = "mutex"
	// KindSemaphore guards with a weight-1 semaphore.
	KindSemaphore Kind = "semaphore"
)

// Kinds lists the supported guard kinds.
var Kinds = []Kind{KindMutex, KindSemaphore}

// ParseKind parses a guard kind name. The empty string is KindMutex.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindMutex:
		return KindMutex, nil
	case KindSemaphore:
		return KindSemaphore, nil
	}
	return "", fmt.Errorf("unknown guard kind %q (want %s or %s)", s, KindMutex, KindSemaphore)
}

func (k Kind) String() string { return string(k) }

// New returns a fresh guard of kind k.
func (k Kind) New() (Guard, error) {
	switch k {
	case "", KindMutex:
		return &MutexGuard{}, nil
	case KindSemaphore:
		return NewSemaphoreGuard(), nil
	}
	return nil, fmt.Errorf("unknown guard kind %q", string(k))
}

// MutexGuard is a Guard backed by sync.Mutex. The zero value is unheld.
//
// A goroutine blocked in Lock cannot be woken by ctx, so Acquire only observes
// cancellation before it starts waiting.
type MutexGuard struct {
	mu   sync.Mutex
	held atomic.Bool
}

// Acquire implements Guard.
func (g *MutexGuard) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.held.Store(true)
	return nil
}

// TryAcquire takes the guard if it is free.
func (g *MutexGuard) TryAcquire() bool {
	if !g.mu.TryLock() {
		return false
	}
	g.held.Store(true)
	return true
}

// Release implements Guard.
func (g *MutexGuard) Release() {
	if g.held.CompareAndSwap(true, false) {
		g.mu.Unlock()
	}
}

// SemaphoreGuard is a binary semaphore. Waiters are served in FIFO order and
// leave the queue when their ctx is done.
type SemaphoreGuard struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

// NewSemaphoreGuard returns an unheld SemaphoreGuard.
func NewSemaphoreGuard() *SemaphoreGuard {
	return &SemaphoreGuard{sem: semaphore.NewWeighted(1)}
}

// Acquire implements Guard.
func (g *SemaphoreGuard) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.held.Store(true)
	return nil
}

// TryAcquire takes the guard if it is free.
func (g *SemaphoreGuard) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held.Store(true)
	return true
}

// Release implements Guard. Only a held permit is returned; semaphore.Weighted
// panics on over-release.
func (g *SemaphoreGuard) Release() {
	if g.held.CompareAndSwap(true, false) {
		g.sem.Release(1)
	}
}
