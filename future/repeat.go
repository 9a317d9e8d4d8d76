package future

type repeatBehavior int

const (
	repeatFinish repeatBehavior = iota
	repeatContinue
	repeatTrampolined
)

// RepeatResult is the outcome a Repeat step function returns: either a
// terminal value (Finish) or new arguments to loop with (Continue /
// TrampolinedContinue).
type RepeatResult[Args, T any] struct {
	behavior repeatBehavior
	args     Args
	value    T
}

// Finish terminates a Repeat loop, resolving it with value.
func Finish[Args, T any](value T) RepeatResult[Args, T] {
	return RepeatResult[Args, T]{behavior: repeatFinish, value: value}
}

// Continue loops a Repeat with newArgs.
func Continue[Args, T any](newArgs Args) RepeatResult[Args, T] {
	return RepeatResult[Args, T]{behavior: repeatContinue, args: newArgs}
}

// TrampolinedContinue loops a Repeat with newArgs, deferring the next step
// through the trampoline driver (see Trampoline) rather than recursing
// inline. Only meaningful for RepeatFuture; Repeat's plain data-returning
// step function already loops iteratively.
func TrampolinedContinue[Args, T any](newArgs Args) RepeatResult[Args, T] {
	return RepeatResult[Args, T]{behavior: repeatTrampolined, args: newArgs}
}

// Repeat runs step repeatedly, feeding each Continue's args back in, until
// it returns Finish, then resolves the result with that value. Because
// step returns plain data rather than a future, this loop is already
// iterative — no stack grows across iterations, regardless of how many
// times step continues. A failure injected via WithFailure inside step
// (checked once per iteration, at the point a result is about to be
// accepted) terminates the loop with that failure, as does a panic inside
// step (converted to an Exception failure).
func Repeat[Args, T, E any](step func(Args) RepeatResult[Args, T], initial Args) Future[T, E] {
	args := initial
	for {
		clearLastFailure()
		result, rec, ok := safeCallStep(step, args)
		if !ok {
			return Failed[T, E](exceptionFailure[E](rec))
		}
		if raw, has := takeLastFailure(); has {
			if e, ok2 := raw.(E); ok2 {
				return Failed[T, E](e)
			}
		}
		if result.behavior == repeatFinish {
			return Successful[T, E](result.value)
		}
		args = result.args
	}
}

// RepeatFuture is Repeat's future-returning overload: step itself performs
// asynchronous work and reports its RepeatResult via a Future. Each
// Continue chains through FlatMap; a TrampolinedContinue instead routes the
// next step through Trampoline, bounding stack depth for deep chains whose
// steps happen to complete synchronously.
func RepeatFuture[Args, T, E any](step func(Args) Future[RepeatResult[Args, T], E], initial Args) Future[T, E] {
	first, rec, ok := safeCall1(step, initial)
	if !ok {
		return Failed[T, E](exceptionFailure[E](rec))
	}
	return FlatMap(first, func(result RepeatResult[Args, T]) Future[T, E] {
		if result.behavior == repeatFinish {
			return Successful[T, E](result.value)
		}
		if result.behavior != repeatTrampolined {
			return RepeatFuture(step, result.args)
		}
		// Defer computing the next step itself, not merely adopting it:
		// if step resolves synchronously, computing RepeatFuture eagerly
		// here would recurse on this call stack exactly as far as the
		// non-trampolined branch above does. Posting the recursive call
		// as a thunk means it only ever runs from inside
		// scheduleTrampoline's iterative drive loop, so a long chain of
		// TrampolinedContinue costs O(1) stack per step, not O(N).
		p := NewPromise[T, E]()
		args := result.args
		scheduleTrampoline(func() {
			adopt(RepeatFuture(step, args), p)
		})
		return Trampoline(p.Future())
	})
}

// RepeatForSequence folds fn over data left to right, short-circuiting on
// the first failure. data is copied up front so it stays reachable across
// any asynchronous suspension between steps.
func RepeatForSequence[Data, Acc, E any](data []Data, initial Acc, fn func(Data, Acc) Future[Acc, E]) Future[Acc, E] {
	if len(data) == 0 {
		return Successful[Acc, E](initial)
	}
	items := append([]Data(nil), data...)

	p := NewPromise[Acc, E]()
	var step func(i int, acc Acc)
	step = func(i int, acc Acc) {
		for i < len(items) {
			inner, rec, ok := safeCallCombine(fn, items[i], acc)
			if !ok {
				p.Failure(exceptionFailure[E](rec))
				return
			}
			if !inner.IsCompleted() {
				idx := i
				inner.OnFailure(func(e E) { p.Failure(e) })
				inner.OnSuccess(func(v Acc) { step(idx+1, v) })
				return
			}
			if inner.IsFailed() {
				p.Failure(inner.FailureReason())
				return
			}
			acc = inner.Result()
			i++
		}
		p.Success(acc)
	}
	step(0, initial)
	return p.Future()
}

func safeCallStep[Args, T any](step func(Args) RepeatResult[Args, T], args Args) (result RepeatResult[Args, T], rec any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
			ok = false
		}
	}()
	result = step(args)
	ok = true
	return
}
