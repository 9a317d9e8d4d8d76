package tasks

import (
	"github.com/joeycumines/asynqro/future"
)

// FailureConverter adapts a Task's inner future failure type to the
// outer Run's failure type, for the case where the submitted callable
// itself returns a future.Future[T, InnerE] whose failure type differs
// from the one Run should deliver. A nil converter means InnerE and E
// are the same type (the common case).
type FailureConverter[InnerE, E any] func(InnerE) E

// Run submits fn as an Intensive, Regular-priority task on d and returns
// a future.Future that completes with fn's result. A panic inside fn is
// recovered and delivered as an Exception failure, matching the rest of
// this repository's panic-swallowing contract; it is never raised in the
// worker goroutine.
func Run[T, E any](d *Dispatcher, fn func() T) future.Future[T, E] {
	return RunTask[T, E](d, TaskDescriptor{Type: Intensive, Priority: Regular}, fn)
}

// RunTask is Run with an explicit TaskDescriptor (its Callable field is
// overwritten); use it to submit as Custom/ThreadBound or at a
// non-Regular priority.
func RunTask[T, E any](d *Dispatcher, td TaskDescriptor, fn func() T) future.Future[T, E] {
	p := future.NewPromise[T, E]()
	td.Callable = func() {
		v, rec, ok := safeCallT(fn)
		if !ok {
			p.Failure(future.ExceptionFailure[E](rec))
			return
		}
		p.Success(v)
	}
	d.Insert(td)
	return p.Future()
}

// RunFuture is Run for a callable that itself returns a Future[T, InnerE]
// (chained rather than double-wrapped, mirroring the original runner's
// inner-future unwrap): the dispatcher-run task subscribes to fn()'s
// result instead of treating it as the final value. convert translates
// an inner failure to E; pass nil when InnerE == E (use
// future.MapFailure's identity shape is unnecessary in that case, a nil
// converter is interpreted as "no conversion needed" and the package
// panics if InnerE and E genuinely differ, since there would be no way
// to produce a value of E from one of InnerE).
func RunFuture[T, InnerE, E any](d *Dispatcher, fn func() future.Future[T, InnerE], convert FailureConverter[InnerE, E]) future.Future[T, E] {
	return RunFutureTask[T, InnerE, E](d, TaskDescriptor{Type: Intensive, Priority: Regular}, fn, convert)
}

// RunFutureTask is RunFuture with an explicit TaskDescriptor.
func RunFutureTask[T, InnerE, E any](d *Dispatcher, td TaskDescriptor, fn func() future.Future[T, InnerE], convert FailureConverter[InnerE, E]) future.Future[T, E] {
	p := future.NewPromise[T, E]()
	td.Callable = func() {
		inner, rec, ok := safeCallFuture(fn)
		if !ok {
			p.Failure(future.ExceptionFailure[E](rec))
			return
		}
		inner.OnSuccess(func(v T) { p.Success(v) })
		inner.OnFailure(func(e InnerE) {
			if convert != nil {
				p.Failure(convert(e))
				return
			}
			if e2, ok := any(e).(E); ok {
				p.Failure(e2)
				return
			}
			panic("tasks: RunFuture: InnerE and E differ and no FailureConverter was given")
		})
	}
	d.Insert(td)
	return p.Future()
}

// RunAndForget submits fn on d without returning a future; any panic is
// recovered and swallowed the same way a Future-returning Run's failure
// would be, but there is nothing to observe it with.
func RunAndForget(d *Dispatcher, td TaskDescriptor, fn func()) {
	td.Callable = fn
	d.Insert(td)
}

func safeCallT[T any](fn func() T) (result T, rec any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
			ok = false
		}
	}()
	result = fn()
	ok = true
	return
}

func safeCallFuture[T, E any](fn func() future.Future[T, E]) (result future.Future[T, E], rec any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
			ok = false
		}
	}()
	result = fn()
	ok = true
	return
}
