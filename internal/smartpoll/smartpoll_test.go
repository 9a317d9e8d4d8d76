package smartpoll_test

import (
	"testing"
	"time"

	"github.com/joeycumines/asynqro/internal/smartpoll"
	"github.com/stretchr/testify/require"
)

func TestIdleReturnsFalseWithinBudget(t *testing.T) {
	p := smartpoll.NewParker(10)
	for i := 0; i < 9; i++ {
		require.False(t, p.Idle())
	}
}

func TestIdleParksThenWakes(t *testing.T) {
	p := smartpoll.NewParker(2)
	done := make(chan bool, 1)
	go func() {
		p.Idle() // 1
		done <- p.Idle() // 2: exhausts budget, parks until woken
	}()

	time.Sleep(20 * time.Millisecond)
	p.Wake()

	select {
	case poisoned := <-done:
		require.False(t, poisoned)
	case <-time.After(time.Second):
		t.Fatal(`Idle never returned after Wake`)
	}
}

func TestPoisonWakesParkedIdleImmediately(t *testing.T) {
	p := smartpoll.NewParker(1)
	done := make(chan bool, 1)
	go func() {
		done <- p.Idle() // exhausts budget immediately, parks
	}()

	time.Sleep(20 * time.Millisecond)
	p.Poison()

	select {
	case poisoned := <-done:
		require.True(t, poisoned)
	case <-time.After(time.Second):
		t.Fatal(`Idle never returned after Poison`)
	}
	require.True(t, p.Poisoned())
}

func TestResetDoesNotWakeAParkedWaiter(t *testing.T) {
	p := smartpoll.NewParker(1)
	done := make(chan bool, 1)
	go func() {
		done <- p.Idle()
	}()
	time.Sleep(20 * time.Millisecond)

	p.Reset()
	select {
	case <-done:
		t.Fatal(`Reset should not have woken the parked waiter`)
	case <-time.After(50 * time.Millisecond):
	}

	p.Wake()
	<-done
}
