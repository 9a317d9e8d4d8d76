// Package smartpoll implements a tunable spin-then-park primitive: spin
// politely for a bounded number of iterations, then block on a condition
// variable. It backs the task dispatcher's worker idle loop, trading a
// little CPU for lower wake-up latency on bursty workloads, then falling
// back to a full park when a worker has genuinely run out of work.
package smartpoll

import (
	"sync"
	"sync/atomic"
)

// Parker is a single-waiter idle-spin-then-park gate. A worker calls Idle
// once per empty poll of its inbox; once the configured spin budget is
// exhausted, the call blocks until Wake is invoked (or the Parker is
// Poisoned). Wake resets the idle counter, used whenever new work
// arrives so the spin budget restarts on the next empty poll.
type Parker struct {
	mu   sync.Mutex
	cond *sync.Cond

	idleLoopsAmount int64 // atomic
	idleCount       int64
	woken           bool
	poisoned        bool
}

// NewParker returns a Parker configured with the given idle-loop budget:
// the first idleLoopsAmount-1 calls to Idle return immediately and the
// idleLoopsAmount-th call parks.
func NewParker(idleLoopsAmount int64) *Parker {
	p := &Parker{idleLoopsAmount: idleLoopsAmount}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// SetIdleLoopsAmount updates the spin budget used by future calls to Idle.
func (p *Parker) SetIdleLoopsAmount(n int64) {
	atomic.StoreInt64(&p.idleLoopsAmount, n)
}

// Idle registers one empty poll. It returns immediately (having incremented
// the spin counter) until the spin budget is exhausted, at which point it
// parks until Wake or Poison is called. It reports whether the caller was
// woken due to poisoning.
func (p *Parker) Idle() (poisoned bool) {
	budget := atomic.LoadInt64(&p.idleLoopsAmount)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.poisoned {
		return true
	}
	p.idleCount++
	if p.idleCount < budget {
		return false
	}
	for !p.woken && !p.poisoned {
		p.cond.Wait()
	}
	p.woken = false
	return p.poisoned
}

// Wake resets the idle counter and, if the worker is currently parked,
// wakes it.
func (p *Parker) Wake() {
	p.mu.Lock()
	p.idleCount = 0
	p.woken = true
	p.mu.Unlock()
	p.cond.Signal()
}

// Reset zeroes the idle counter without waking a parked worker; used after a
// non-empty poll so the spin budget restarts from zero.
func (p *Parker) Reset() {
	p.mu.Lock()
	p.idleCount = 0
	p.mu.Unlock()
}

// Poison permanently wakes the Parker; all current and future calls to Idle
// return true immediately.
func (p *Parker) Poison() {
	p.mu.Lock()
	p.poisoned = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Poisoned reports whether Poison has been called.
func (p *Parker) Poisoned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.poisoned
}
