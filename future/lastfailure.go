package future

import (
	"sync"

	"github.com/joeycumines/asynqro/internal/goroutineid"
)

// lastFailures is the per-goroutine last-failure slot: a function that
// returns a plain value (T) can
// instead stash a failure here via WithFailure, and the fill protocol
// drains it before delivering a success.
var lastFailures sync.Map // int64 goroutine id -> any

func setLastFailure(f any) {
	lastFailures.Store(goroutineid.Get(), f)
}

func hasLastFailure() bool {
	_, ok := lastFailures.Load(goroutineid.Get())
	return ok
}

// takeLastFailure returns and clears the calling goroutine's stashed
// failure, if any.
func takeLastFailure() (any, bool) {
	id := goroutineid.Get()
	v, ok := lastFailures.LoadAndDelete(id)
	return v, ok
}

func clearLastFailure() {
	lastFailures.Delete(goroutineid.Get())
}

// HasLastFailure reports whether the calling goroutine currently has a
// failure stashed via WithFailure, without consuming it. It is the check a
// data-parallel loop makes per iteration to stop processing its own share of
// the work once some earlier iteration (on this same goroutine) has already
// reported a failure — see tasks.ClusteredRun.
func HasLastFailure() bool {
	return hasLastFailure()
}

// TakeLastFailure returns and clears the calling goroutine's stashed
// failure as an E, if one is present and holds a value of that type.
func TakeLastFailure[E any]() (E, bool) {
	raw, ok := takeLastFailure()
	if !ok {
		var zero E
		return zero, false
	}
	e, ok := raw.(E)
	if !ok {
		var zero E
		return zero, false
	}
	return e, true
}

// WithFailure records f in the calling goroutine's last-failure slot and
// returns the zero value of T. It is the Go rendering of the implicit
// sentinel conversion the original library uses to let a value-returning
// combinator function report a failure without changing its signature:
//
//	doubled := future.Map(f, func(v int) int {
//		if v < 0 {
//			return future.WithFailure[error, int](fmt.Errorf("negative: %d", v))
//		}
//		return v * 2
//	})
//
// The fill protocol drains this slot before delivering any success, so the
// failure takes precedence over the zero value actually returned.
func WithFailure[E, T any](f E) T {
	setLastFailure(f)
	var zero T
	return zero
}
