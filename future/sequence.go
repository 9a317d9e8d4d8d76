package future

import "github.com/joeycumines/asynqro/internal/spinlock"

// Sequence folds an ordered slice of futures into a single future of their
// results, in input order. It walks the slice left to right, appending
// already-completed values directly; on the first not-yet-completed
// future it registers a continuation that resumes the walk, so the total
// work done is O(N) with no quadratic callback fan-out. Futures are
// observed strictly in input order, so the first failed future the walk
// reaches (the lowest-indexed failure) fails the whole result and the walk
// stops.
func Sequence[T, E any](futures []Future[T, E]) Future[[]T, E] {
	p := NewPromise[[]T, E]()
	if len(futures) == 0 {
		p.Success(nil)
		return p.Future()
	}
	result := make([]T, len(futures))

	var step func(i int)
	step = func(i int) {
		for i < len(futures) {
			f := futures[i]
			if !f.IsCompleted() {
				idx := i
				f.OnFailure(func(e E) { p.Failure(e) })
				f.OnSuccess(func(v T) {
					result[idx] = v
					step(idx + 1)
				})
				return
			}
			if f.IsFailed() {
				p.Failure(f.FailureReason())
				return
			}
			result[i] = f.Result()
			i++
		}
		p.Success(result)
	}
	step(0)
	return p.Future()
}

// SequenceResult is the outcome of SequenceWithFailures: every input
// future's index lands in exactly one of Successes or Failures.
type SequenceResult[T, E any] struct {
	Successes map[int]T
	Failures  map[int]E
}

// SequenceWithFailures waits for every future in futures to complete and
// partitions their outcomes by original index. Unlike Sequence, it never
// fails: a future that fails simply populates Failures instead of aborting
// the whole aggregate.
func SequenceWithFailures[T, E any](futures []Future[T, E]) Future[SequenceResult[T, E], E] {
	p := NewPromise[SequenceResult[T, E], E]()
	result := SequenceResult[T, E]{Successes: make(map[int]T), Failures: make(map[int]E)}
	if len(futures) == 0 {
		p.Success(result)
		return p.Future()
	}

	var lock spinlock.SpinLock
	remaining := len(futures)
	settle := func() (done bool) {
		remaining--
		return remaining == 0
	}

	for i, f := range futures {
		idx := i
		f.OnSuccess(func(v T) {
			lock.Lock()
			result.Successes[idx] = v
			done := settle()
			lock.Unlock()
			if done {
				p.Success(result)
			}
		})
		f.OnFailure(func(e E) {
			lock.Lock()
			result.Failures[idx] = e
			done := settle()
			lock.Unlock()
			if done {
				p.Success(result)
			}
		})
	}
	return p.Future()
}
