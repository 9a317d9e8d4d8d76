// Package spinlock implements the short-critical-section mutual exclusion
// primitive used throughout this module's shared state and dispatcher
// bookkeeping: a test-and-set lock that spins a bounded number of times
// before falling back to a short sleep.
package spinlock

import (
	"runtime"
	"sync/atomic"
	"time"
)

const (
	spinRetries = 1024
	sleepFor    = 500 * time.Microsecond
)

// SpinLock is a test-and-set mutex. Its zero value is an unlocked lock.
//
// It is intended for very short critical sections (a handful of field
// reads/writes) where the overhead of parking on a full mutex would
// dominate. Holding a SpinLock across a blocking call or a long-running
// computation defeats its purpose and starves other spinners.
type SpinLock struct {
	state int32
}

// Lock acquires the lock, spinning up to 1024 times with a scheduler yield
// between attempts before sleeping 500µs and retrying the spin budget.
func (s *SpinLock) Lock() {
	for {
		if s.TryLock() {
			return
		}
		time.Sleep(sleepFor)
	}
}

// TryLock attempts to acquire the lock without blocking, honoring the same
// spin budget as Lock but returning false instead of sleeping.
func (s *SpinLock) TryLock() bool {
	if atomic.CompareAndSwapInt32(&s.state, 0, 1) {
		return true
	}
	for i := 0; i < spinRetries; i++ {
		runtime.Gosched()
		if atomic.CompareAndSwapInt32(&s.state, 0, 1) {
			return true
		}
	}
	return false
}

// Unlock releases the lock. Unlocking an already-unlocked lock is a no-op.
func (s *SpinLock) Unlock() {
	atomic.StoreInt32(&s.state, 0)
}

// Guard acquires l and returns a function that releases it, for use as
// `defer spinlock.Guard(l)()`.
func Guard(l *SpinLock) func() {
	l.Lock()
	return l.Unlock
}

// AbandonableSpinLock is a SpinLock variant whose acquisition may be
// abandoned: between spin retries (and before the sleep fallback) it checks
// an abandon flag and, if set, gives up and reports failure instead of
// sleeping indefinitely. This mirrors the "abandon flag" holder variant used
// when a caller needs to stop waiting on a lock whose owner may be gone for
// good (e.g. a poisoned worker).
type AbandonableSpinLock struct {
	state int32
}

// TryLockUnlessAbandoned behaves like SpinLock.Lock, except it polls
// abandoned between every spin and sleep cycle; if abandoned ever reports
// true, acquisition stops and false is returned. On success true is
// returned and the lock is held.
func (s *AbandonableSpinLock) TryLockUnlessAbandoned(abandoned func() bool) bool {
	for {
		if atomic.CompareAndSwapInt32(&s.state, 0, 1) {
			return true
		}
		for i := 0; i < spinRetries; i++ {
			if abandoned != nil && abandoned() {
				return false
			}
			runtime.Gosched()
			if atomic.CompareAndSwapInt32(&s.state, 0, 1) {
				return true
			}
		}
		if abandoned != nil && abandoned() {
			return false
		}
		time.Sleep(sleepFor)
	}
}

// Unlock releases the lock. Unlocking an already-unlocked lock is a no-op.
func (s *AbandonableSpinLock) Unlock() {
	atomic.StoreInt32(&s.state, 0)
}
