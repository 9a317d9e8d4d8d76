package future

import (
	"sync"

	"github.com/joeycumines/asynqro/internal/goroutineid"
)

// Trampoline marks f as a trampolined step of a FlatMap chain: instead of
// being adopted inline (which, for an already-completed inner future, would
// recurse directly through the calling goroutine's stack), the combinator
// machinery defers the adoption to a per-goroutine driver loop, turning
// unbounded recursion into bounded iteration. Trampolining is opt-in per
// step; a FlatMap chain may freely mix trampolined and non-trampolined
// returns.
func Trampoline[T, E any](f Future[T, E]) Future[T, E] {
	f.trampolined = true
	return f
}

type trampolineState struct {
	active bool
	queue  []func()
}

var trampolines sync.Map // int64 goroutine id -> *trampolineState

// scheduleTrampoline runs thunk as part of the calling goroutine's
// trampoline drive loop. If a drive loop is already running on this
// goroutine, thunk is merely enqueued (the active loop will reach it); if
// not, this call becomes the drive loop, looping until the queue (which
// thunk itself may grow) is empty.
func scheduleTrampoline(thunk func()) {
	id := goroutineid.Get()
	v, _ := trampolines.LoadOrStore(id, &trampolineState{})
	st := v.(*trampolineState)

	st.queue = append(st.queue, thunk)
	if st.active {
		return
	}

	st.active = true
	for len(st.queue) > 0 {
		next := st.queue[0]
		st.queue = st.queue[1:]
		next()
	}
	st.active = false
	trampolines.Delete(id)
}
