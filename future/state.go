package future

import (
	"runtime"
	"sync/atomic"

	"github.com/joeycumines/asynqro/internal/spinlock"
)

// instantFutures counts currently-live shared states, the process-wide
// observability counter surfaced by InstantFuturesUsage.
var instantFutures int64

type status int32

const (
	notCompleted status = iota
	succeeded
	failed
)

// sharedState is the cell jointly owned by every Future/Promise handle that
// references it: one atomic status word (for lock-free IsCompleted checks),
// the value-or-failure payload (safe to read only once the status is
// terminal), the two callback lists, and the spinlock guarding all of the
// above during a transition or a registration.
type sharedState[T, E any] struct {
	lock spinlock.SpinLock

	st int32 // atomic status

	value   T
	failure E

	successCBs []func(T)
	failureCBs []func(E)

	done chan struct{}
}

func newSharedState[T, E any]() *sharedState[T, E] {
	s := &sharedState[T, E]{done: make(chan struct{})}
	atomic.AddInt64(&instantFutures, 1)
	runtime.SetFinalizer(s, func(*sharedState[T, E]) {
		atomic.AddInt64(&instantFutures, -1)
	})
	return s
}

// InstantFuturesUsage returns the number of currently-live shared states
// (one per outstanding Future/Promise chain), a debug-oriented
// observability counter. It relies on garbage-collector finalizers, so it
// is necessarily approximate — a lagging indicator, not a precise count.
func InstantFuturesUsage() int64 {
	return atomic.LoadInt64(&instantFutures)
}

func (s *sharedState[T, E]) status() status {
	return status(atomic.LoadInt32(&s.st))
}

// fillSuccess implements the fill protocol's success path (§4.1): drain the
// calling goroutine's last-failure slot first, so a value-returning
// function that injected a failure via WithFailure is honored instead of
// the zero value it otherwise returned.
func (s *sharedState[T, E]) fillSuccess(v T) {
	if raw, ok := takeLastFailure(); ok {
		if e, ok2 := raw.(E); ok2 {
			s.fillFailure(e)
			return
		}
	}

	s.lock.Lock()
	if status(s.st) != notCompleted {
		s.lock.Unlock()
		return
	}
	s.value = v
	atomic.StoreInt32(&s.st, int32(succeeded))
	cbs := s.successCBs
	s.successCBs = nil
	s.failureCBs = nil
	close(s.done)
	s.lock.Unlock()

	for _, cb := range cbs {
		invokeSuccessCB(cb, v)
	}
}

func (s *sharedState[T, E]) fillFailure(e E) {
	clearLastFailure()

	s.lock.Lock()
	if status(s.st) != notCompleted {
		s.lock.Unlock()
		return
	}
	s.failure = e
	atomic.StoreInt32(&s.st, int32(failed))
	cbs := s.failureCBs
	s.failureCBs = nil
	s.successCBs = nil
	close(s.done)
	s.lock.Unlock()

	for _, cb := range cbs {
		invokeFailureCB(cb, e)
	}
}

func (s *sharedState[T, E]) onSuccess(cb func(T)) {
	s.lock.Lock()
	switch status(s.st) {
	case succeeded:
		v := s.value
		s.lock.Unlock()
		invokeSuccessCB(cb, v)
		return
	case failed:
		s.lock.Unlock()
		return
	default:
		s.successCBs = append(s.successCBs, cb)
		s.lock.Unlock()
	}
}

func (s *sharedState[T, E]) onFailure(cb func(E)) {
	s.lock.Lock()
	switch status(s.st) {
	case failed:
		e := s.failure
		s.lock.Unlock()
		invokeFailureCB(cb, e)
		return
	case succeeded:
		s.lock.Unlock()
		return
	default:
		s.failureCBs = append(s.failureCBs, cb)
		s.lock.Unlock()
	}
}

func invokeSuccessCB[T any](cb func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			logCallbackPanic(`success`, r)
		}
	}()
	cb(v)
}

func invokeFailureCB[E any](cb func(E), e E) {
	defer func() {
		if r := recover(); r != nil {
			logCallbackPanic(`failure`, r)
		}
	}()
	cb(e)
}
