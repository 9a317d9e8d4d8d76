package goroutineid_test

import (
	"sync"
	"testing"

	"github.com/joeycumines/asynqro/internal/goroutineid"
	"github.com/stretchr/testify/require"
)

func TestGetIsStableWithinAGoroutine(t *testing.T) {
	id1 := goroutineid.Get()
	id2 := goroutineid.Get()
	require.Equal(t, id1, id2)
	require.NotEqual(t, int64(-1), id1)
}

func TestGetDiffersAcrossGoroutines(t *testing.T) {
	mainID := goroutineid.Get()
	var otherID int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		otherID = goroutineid.Get()
	}()
	wg.Wait()
	require.NotEqual(t, mainID, otherID)
}
