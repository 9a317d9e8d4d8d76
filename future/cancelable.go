package future

// CancelableFuture is a Future handle whose holder may force a failure
// before the producing computation ever completes it. It wraps a Promise
// by value; Cancel is a no-op once the promise is already filled (I1), so
// two Cancel calls — or a Cancel racing the real completion — always leave
// the future failed (or succeeded) exactly once.
//
// Holding a CancelableFuture does not stop whatever is computing the
// value: if that computation is, say, a task already running on a
// dispatcher worker, it keeps running to completion, and its own
// call to Promise.Success/Failure becomes a no-op if Cancel won the race.
// Cancellation here is purely observational.
//
// Every Future combinator in this package operates on Future[T, E], so a
// CancelableFuture is used by first obtaining its Future view:
//
//	cf := future.NewCancelableFuture(p)
//	chained := future.Map(cf.Future(), strconv.Itoa)
type CancelableFuture[T, E any] struct {
	p Promise[T, E]
}

// NewCancelableFuture wraps p as a cancelable handle.
func NewCancelableFuture[T, E any](p Promise[T, E]) CancelableFuture[T, E] {
	return CancelableFuture[T, E]{p: p}
}

// Cancel fails the underlying promise with the default "Canceled" failure,
// unless it is already filled.
func (c CancelableFuture[T, E]) Cancel() {
	c.CancelWithFailure(canceledFailure[E]())
}

// CancelWithFailure fails the underlying promise with failure, unless it is
// already filled.
func (c CancelableFuture[T, E]) CancelWithFailure(failure E) {
	if !c.p.IsFilled() {
		c.p.Failure(failure)
	}
}

// Future returns the read handle for this cancelable future's value.
func (c CancelableFuture[T, E]) Future() Future[T, E] { return c.p.Future() }

// IsValid reports whether c wraps an initialized promise.
func (c CancelableFuture[T, E]) IsValid() bool { return c.Future().IsValid() }

// IsCompleted reports whether c has reached a terminal state.
func (c CancelableFuture[T, E]) IsCompleted() bool { return c.Future().IsCompleted() }

// IsSucceeded reports whether c has succeeded.
func (c CancelableFuture[T, E]) IsSucceeded() bool { return c.Future().IsSucceeded() }

// IsFailed reports whether c has failed (including by cancellation).
func (c CancelableFuture[T, E]) IsFailed() bool { return c.Future().IsFailed() }
