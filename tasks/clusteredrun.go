package tasks

import "github.com/joeycumines/asynqro/future"

// RunEach submits one Intensive, Regular-priority task per element of data,
// each running f on its own dispatcher task, and sequences the per-element
// results back into a single Future[[]U, E] in input order (see
// future.Sequence). Nil or empty data succeeds immediately with a nil
// slice.
func RunEach[T, U, E any](d *Dispatcher, data []T, f func(T) U) future.Future[[]U, E] {
	return RunEachTask[T, U, E](d, TaskDescriptor{Type: Intensive, Priority: Regular}, data, f)
}

// RunEachTask is RunEach with an explicit TaskDescriptor (its Callable
// field is overwritten, once per element); use it to submit as
// Custom/ThreadBound or at a non-Regular priority.
func RunEachTask[T, U, E any](d *Dispatcher, td TaskDescriptor, data []T, f func(T) U) future.Future[[]U, E] {
	if len(data) == 0 {
		return future.Successful[[]U, E](nil)
	}
	futures := make([]future.Future[U, E], len(data))
	for i, item := range data {
		futures[i] = RunTask[U, E](d, td, func() U { return f(item) })
	}
	return future.Sequence(futures)
}

// ClusteredRun is an Intensive, Regular-priority ClusteredRunTask; see
// ClusteredRunTask for the full semantics.
func ClusteredRun[T, U, E any](d *Dispatcher, data []T, f func(T) U, minClusterSize int) future.Future[[]U, E] {
	return ClusteredRunTask[T, U, E](d, TaskDescriptor{Type: Intensive, Priority: Regular}, data, f, minClusterSize)
}

// ClusteredRunTask is RunEachTask's data-parallel sibling: instead of one
// task per element, data is split into contiguous clusters, each processed
// in a tight loop rather than one task per element. The number of clusters
// is at most SubPoolCapacity(td.Type, td.Tag) and at most
// ceil(len(data)/minClusterSize) (minClusterSize below 1 is clamped to 1);
// every cluster but the last holds len(data)/clusters elements and the last
// takes the remainder, so a cluster may hold fewer than minClusterSize
// elements. All but the last cluster are
// dispatched as their own tasks (td.Type/td.Tag/td.Priority, Callable
// overwritten); the last cluster runs inline on the task that called
// ClusteredRunTask, avoiding an otherwise-pointless extra dispatch for work
// the caller's own task can do itself while the others run.
//
// A goroutine processing a cluster checks future.HasLastFailure once per
// element: if f signals a failure for some earlier element via
// future.WithFailure, the rest of that goroutine's cluster is skipped
// rather than continuing to do work whose result is already discarded. The
// first failure observed — the inline (last) cluster's own, if any,
// otherwise the first dispatched cluster (by index) that failed — becomes
// the result's failure; a panic inside f is recovered and reported the
// same way any other task panic is, as an Exception failure.
func ClusteredRunTask[T, U, E any](d *Dispatcher, td TaskDescriptor, data []T, f func(T) U, minClusterSize int) future.Future[[]U, E] {
	if len(data) == 0 {
		return future.Successful[[]U, E](nil)
	}
	if minClusterSize <= 0 {
		minClusterSize = 1
	}
	items := append([]T(nil), data...)

	return RunTask[[]U, E](d, td, func() []U {
		return runClustered[T, U, E](d, td, items, f, minClusterSize)
	})
}

func runClustered[T, U, E any](d *Dispatcher, td TaskDescriptor, data []T, f func(T) U, minClusterSize int) []U {
	amount := len(data)
	capacity := d.SubPoolCapacity(td.Type, td.Tag)
	if ceil := (amount + minClusterSize - 1) / minClusterSize; ceil < capacity {
		capacity = ceil
	}
	if capacity < 1 {
		capacity = 1
	}
	clusterSize := amount / capacity
	capacity-- // the last cluster is processed in this task, not dispatched

	result := make([]U, amount)

	futures := make([]future.Future[bool, E], 0, capacity)
	for job := 0; job < capacity; job++ {
		start := job * clusterSize
		end := start + clusterSize
		futures = append(futures, RunTask[bool, E](d, td, func() bool {
			for i := start; i < end && !future.HasLastFailure(); i++ {
				result[i] = f(data[i])
			}
			return true
		}))
	}

	for i := capacity * clusterSize; i < amount && !future.HasLastFailure(); i++ {
		result[i] = f(data[i])
	}
	localFailure, localFailureHappened := future.TakeLastFailure[E]()

	for _, fut := range futures {
		fut.Wait(0)
	}

	if localFailureHappened {
		return future.WithFailure[E, []U](localFailure)
	}
	for _, fut := range futures {
		if fut.IsFailed() {
			return future.WithFailure[E, []U](fut.FailureReason())
		}
	}
	return result
}
