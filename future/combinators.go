package future

// Map applies fn to f's success value, producing a new Future[U, E] that
// succeeds with fn(v). A failure on f propagates unchanged without invoking
// fn; a panic inside fn becomes an Exception failure on the result.
func Map[T, E, U any](f Future[T, E], fn func(T) U) Future[U, E] {
	p := NewPromise[U, E]()
	f.OnSuccess(func(v T) {
		u, rec, ok := safeCall1(fn, v)
		if !ok {
			p.Failure(exceptionFailure[E](rec))
			return
		}
		p.Success(u)
	})
	f.OnFailure(func(e E) { p.Failure(e) })
	return p.Future()
}

// MapFailure transforms a failed f's failure value via fn, leaving a
// succeeded f untouched (T is unchanged, only the failure type/value
// transforms).
func MapFailure[T, E, E2 any](f Future[T, E], fn func(E) E2) Future[T, E2] {
	p := NewPromise[T, E2]()
	f.OnSuccess(func(v T) { p.Success(v) })
	f.OnFailure(func(e E) {
		e2, rec, ok := safeCall1(fn, e)
		if !ok {
			p.Failure(exceptionFailure[E2](rec))
			return
		}
		p.Failure(e2)
	})
	return p.Future()
}

// FlatMap applies fn to f's success value, adopting the Future[U, E] it
// returns. If fn's result was produced via Trampoline, adoption is deferred
// to the calling goroutine's trampoline driver loop instead of happening
// inline, bounding stack depth across long synchronous chains.
func FlatMap[T, E, U any](f Future[T, E], fn func(T) Future[U, E]) Future[U, E] {
	p := NewPromise[U, E]()
	f.OnSuccess(func(v T) {
		inner, rec, ok := safeCall1(fn, v)
		if !ok {
			p.Failure(exceptionFailure[E](rec))
			return
		}
		if inner.trampolined {
			scheduleTrampoline(func() {
				inner.OnSuccess(func(v U) { scheduleTrampoline(func() { p.Success(v) }) })
				inner.OnFailure(func(e E) { scheduleTrampoline(func() { p.Failure(e) }) })
			})
			return
		}
		adopt(inner, p)
	})
	f.OnFailure(func(e E) { p.Failure(e) })
	return p.Future()
}

// AndThen runs fn (ignoring f's value) once f succeeds, and adopts the
// Future[U, E] it returns.
func AndThen[T, E, U any](f Future[T, E], fn func() Future[U, E]) Future[U, E] {
	return FlatMap(f, func(T) Future[U, E] { return fn() })
}

// AndThenValue replaces f's eventual success with value, once f succeeds.
func AndThenValue[T, E, V any](f Future[T, E], value V) Future[V, E] {
	return Map(f, func(T) V { return value })
}

// Filter keeps f's success only if pred(v) holds; otherwise the result
// fails with the default "Result wasn't good enough" failure. Use
// FilterWithFailure to supply a different rejection failure.
func Filter[T, E any](f Future[T, E], pred func(T) bool) Future[T, E] {
	return FilterWithFailure(f, pred, rejectedFailure[E]())
}

// FilterWithFailure is Filter with an explicit rejection failure.
func FilterWithFailure[T, E any](f Future[T, E], pred func(T) bool, rejected E) Future[T, E] {
	p := NewPromise[T, E]()
	f.OnSuccess(func(v T) {
		ok, rec, good := safeCall1(pred, v)
		if !good {
			p.Failure(exceptionFailure[E](rec))
			return
		}
		if !ok {
			p.Failure(rejected)
			return
		}
		p.Success(v)
	})
	f.OnFailure(func(e E) { p.Failure(e) })
	return p.Future()
}

// Recover consumes a failed f's failure via fn, always succeeding unless fn
// itself panics. A succeeded f passes through untouched.
func Recover[T, E any](f Future[T, E], fn func(E) T) Future[T, E] {
	p := NewPromise[T, E]()
	f.OnSuccess(func(v T) { p.Success(v) })
	f.OnFailure(func(e E) {
		v, rec, ok := safeCall1(fn, e)
		if !ok {
			p.Failure(exceptionFailure[E](rec))
			return
		}
		p.Success(v)
	})
	return p.Future()
}

// RecoverWith consumes a failed f's failure via fn and adopts the
// Future[T, E] it returns.
func RecoverWith[T, E any](f Future[T, E], fn func(E) Future[T, E]) Future[T, E] {
	p := NewPromise[T, E]()
	f.OnSuccess(func(v T) { p.Success(v) })
	f.OnFailure(func(e E) {
		inner, rec, ok := safeCall1(fn, e)
		if !ok {
			p.Failure(exceptionFailure[E](rec))
			return
		}
		adopt(inner, p)
	})
	return p.Future()
}

// RecoverValue replaces a failed f's failure with value.
func RecoverValue[T, E any](f Future[T, E], value T) Future[T, E] {
	return Recover(f, func(E) T { return value })
}

// adopt wires inner's eventual completion through to p.
func adopt[T, E any](inner Future[T, E], p Promise[T, E]) {
	inner.OnSuccess(func(v T) { p.Success(v) })
	inner.OnFailure(func(e E) { p.Failure(e) })
}

// safeCall1 invokes fn(v), recovering a panic instead of letting it escape.
// ok is false iff fn panicked, in which case rec holds the recovered value.
func safeCall1[T, U any](fn func(T) U, v T) (result U, rec any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
			ok = false
		}
	}()
	result = fn(v)
	ok = true
	return
}
