package tasks_test

import (
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/asynqro/future"
	"github.com/joeycumines/asynqro/tasks"
	"github.com/stretchr/testify/require"
)

func TestRunEachSequencesResultsInOrder(t *testing.T) {
	d := tasks.NewDispatcher()
	data := []int{1, 2, 3, 4, 5}

	f := tasks.RunEach[int, int, error](d, data, func(x int) int { return x * x })
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsSucceeded())
	require.Equal(t, []int{1, 4, 9, 16, 25}, f.Result())
}

func TestRunEachOnEmptyDataSucceedsImmediately(t *testing.T) {
	d := tasks.NewDispatcher()
	f := tasks.RunEach[int, int, error](d, nil, func(x int) int { return x })
	require.True(t, f.IsSucceeded())
	require.Nil(t, f.Result())
}

func TestRunEachPropagatesFirstFailure(t *testing.T) {
	d := tasks.NewDispatcher()
	boom := errors.New(`boom`)

	f := tasks.RunEach[int, int, error](d, []int{1, 2, 3}, func(x int) int {
		if x == 2 {
			return future.WithFailure[error, int](boom)
		}
		return x
	})
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsFailed())
	require.Equal(t, boom, f.FailureReason())
}

// clusteredTag registers a Custom tag with exactly capacity slots,
// regardless of how many CPUs the test happens to run on: SetCapacity only
// ever grows the dispatcher's total capacity, so raising it well above
// capacity first guarantees AddCustomTag's own clamp (to [1, total
// capacity]) never kicks in.
func clusteredTag(d *tasks.Dispatcher, tag int32, capacity int) tasks.TaskDescriptor {
	d.SetCapacity(capacity * 10)
	d.AddCustomTag(tag, capacity)
	return tasks.TaskDescriptor{Type: tasks.Custom, Tag: tag, Priority: tasks.Regular}
}

func TestClusteredRunOnEmptyDataSucceedsImmediately(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 1, 3)
	f := tasks.ClusteredRunTask[int, int, error](d, td, nil, func(x int) int { return x }, 1)
	require.True(t, f.IsSucceeded())
	require.Nil(t, f.Result())
}

func TestClusteredRunSplitsAcrossSubPoolCapacity(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 2, 3)
	data := make([]int, 10)
	for i := range data {
		data[i] = i
	}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int { return x * 2 }, 1)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsSucceeded())
	want := make([]int, 10)
	for i := range want {
		want[i] = i * 2
	}
	require.Equal(t, want, f.Result())
}

// A minClusterSize far larger than the input forces a single cluster, which
// is entirely the inline (last) one — no cluster task is ever dispatched.
func TestClusteredRunWithOversizedMinClusterSizeRunsInline(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 3, 3)
	data := []int{10, 20, 30, 40, 50}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int { return x + 1 }, 1000)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsSucceeded())
	require.Equal(t, []int{11, 21, 31, 41, 51}, f.Result())
}

// A non-positive minClusterSize is clamped to 1, behaving identically to an
// explicit 1.
func TestClusteredRunClampsNonPositiveMinClusterSize(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 4, 3)
	data := []int{1, 2, 3, 4, 5, 6}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int { return x }, -5)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsSucceeded())
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, f.Result())
}

// A failure inside a dispatched (non-inline) cluster fails the whole result.
func TestClusteredRunFailsOnMidClusterFailure(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 5, 3)
	boom := errors.New(`mid-cluster boom`)
	data := make([]int, 9) // capacity 3 -> clusterSize 3, clusters [0,3) [3,6), inline [6,9)
	for i := range data {
		data[i] = i
	}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int {
		if x == 4 { // inside the second dispatched cluster, [3,6)
			return future.WithFailure[error, int](boom)
		}
		return x
	}, 1)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsFailed())
	require.Equal(t, boom, f.FailureReason())
}

// A failure confined to the inline (last) cluster takes priority over any
// dispatched cluster's outcome, matching the original's check-local-first
// order.
func TestClusteredRunFailsOnLastClusterFailureTakingPriority(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 6, 3)
	dispatchedBoom := errors.New(`dispatched boom`)
	localBoom := errors.New(`local boom`)
	data := make([]int, 9)
	for i := range data {
		data[i] = i
	}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int {
		switch x {
		case 1: // dispatched cluster [0,3)
			return future.WithFailure[error, int](dispatchedBoom)
		case 7: // inline cluster [6,9)
			return future.WithFailure[error, int](localBoom)
		default:
			return x
		}
	}, 1)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsFailed())
	require.Equal(t, localBoom, f.FailureReason())
}

// A panic inside a dispatched cluster's f is recovered by that cluster's own
// RunTask wrapping, converted to an Exception failure, and relayed through
// as the overall result's failure since no local (inline) failure occurred.
func TestClusteredRunConvertsDispatchedClusterPanicToExceptionFailure(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 7, 3)
	data := make([]int, 9)
	for i := range data {
		data[i] = i
	}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int {
		if x == 4 {
			panic(errors.New(`kaboom`))
		}
		return x
	}, 1)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsFailed())
	require.EqualError(t, f.FailureReason(), `Exception: kaboom`)
}

// A panic inside the inline cluster's f escapes runClustered entirely and is
// recovered by ClusteredRunTask's own RunTask wrapping.
func TestClusteredRunConvertsInlineClusterPanicToExceptionFailure(t *testing.T) {
	d := tasks.NewDispatcher()
	td := clusteredTag(d, 8, 3)
	data := make([]int, 9)
	for i := range data {
		data[i] = i
	}

	f := tasks.ClusteredRunTask[int, int, error](d, td, data, func(x int) int {
		if x == 7 {
			panic(`kaboom`)
		}
		return x
	}, 1)
	require.True(t, f.Wait(time.Second))
	require.True(t, f.IsFailed())
	require.EqualError(t, f.FailureReason(), `Exception: kaboom`)
}
