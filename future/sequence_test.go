package future_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/asynqro/future"
	"github.com/stretchr/testify/require"
)

// TestSequencePreservesOrder reproduces spec.md §8 scenario 2.
func TestSequencePreservesOrder(t *testing.T) {
	const n = 100
	promises := make([]future.Promise[int, error], n)
	futures := make([]future.Future[int, error], n)
	for i := range promises {
		promises[i] = future.NewPromise[int, error]()
		futures[i] = promises[i].Future()
	}

	fut := future.Sequence(futures)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// complete in a shuffled order
	order[0], order[n-1] = order[n-1], order[0]
	order[1], order[n-2] = order[n-2], order[1]

	var wg sync.WaitGroup
	for _, i := range order {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			promises[i].Success(2 * i)
		}()
	}
	wg.Wait()

	require.True(t, fut.Wait(time.Second))
	require.True(t, fut.IsSucceeded())
	result := fut.Result()
	require.Len(t, result, n)
	for i := 0; i < n; i++ {
		require.Equal(t, 2*i, result[i])
	}
}

// TestSequenceFailsOnFirstFailure reproduces spec.md §8 scenario 3.
func TestSequenceFailsOnFirstFailure(t *testing.T) {
	const n = 100
	promises := make([]future.Promise[int, error], n)
	futures := make([]future.Future[int, error], n)
	for i := range promises {
		promises[i] = future.NewPromise[int, error]()
		futures[i] = promises[i].Future()
	}

	fut := future.Sequence(futures)

	for i := 0; i < 98; i++ {
		promises[i].Success(2 * i)
	}
	promises[98].Failure(errors.New(`failed`))
	promises[99].Success(2 * 99)

	require.True(t, fut.Wait(time.Second))
	require.True(t, fut.IsFailed())
	require.EqualError(t, fut.FailureReason(), `failed`)
	require.Nil(t, fut.Result())
}

func TestSequenceEmpty(t *testing.T) {
	fut := future.Sequence[int, error](nil)
	require.True(t, fut.IsSucceeded())
	require.Empty(t, fut.Result())
}

func TestSequenceWithFailuresNeverFails(t *testing.T) {
	p1 := future.NewPromise[int, error]()
	p2 := future.NewPromise[int, error]()
	p3 := future.NewPromise[int, error]()

	fut := future.SequenceWithFailures([]future.Future[int, error]{p1.Future(), p2.Future(), p3.Future()})

	p1.Success(1)
	p2.Failure(errors.New(`bad`))
	p3.Success(3)

	require.True(t, fut.Wait(time.Second))
	require.True(t, fut.IsSucceeded())
	result := fut.Result()
	require.Equal(t, map[int]int{0: 1, 2: 3}, result.Successes)
	require.Len(t, result.Failures, 1)
	require.EqualError(t, result.Failures[1], `bad`)
}
