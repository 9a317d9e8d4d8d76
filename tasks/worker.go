package tasks

import (
	"sync/atomic"

	"github.com/joeycumines/asynqro/internal/smartpoll"
	"github.com/joeycumines/asynqro/internal/spinlock"
)

// worker is a single logical OS thread (a goroutine pinned to the work it
// pulls from its own inbox): a private task queue, an idle-spin-then-park
// gate, and a poisoned flag.
type worker struct {
	id         int
	dispatcher *dispatcherState

	inboxLock spinlock.AbandonableSpinLock
	inbox     *taskList

	parker *smartpoll.Parker

	poisoned int32 // atomic bool
}

func newWorker(id int, d *dispatcherState, idleLoopsAmount int64) *worker {
	w := &worker{
		id:         id,
		dispatcher: d,
		inbox:      newTaskList(),
		parker:     smartpoll.NewParker(idleLoopsAmount),
	}
	go w.run()
	return w
}

// addTask appends td to the inbox and wakes the worker if it was idle. The
// inbox lock is abandonable: a poisoned worker is about to exit and will
// never drain this task, so a dispatcher racing a shutdown gives up rather
// than spinning against a lock its holder may never release promptly.
func (w *worker) addTask(td TaskDescriptor) {
	if !w.inboxLock.TryLockUnlessAbandoned(w.isPoisoned) {
		return
	}
	wasEmpty := w.inbox.Len() == 0
	w.inbox.Insert(td)
	w.inboxLock.Unlock()
	if wasEmpty {
		w.parker.Wake()
	}
}

// poison tells the worker to exit once it next goes idle.
func (w *worker) poison() {
	atomic.StoreInt32(&w.poisoned, 1)
	w.parker.Poison()
}

func (w *worker) isPoisoned() bool {
	return atomic.LoadInt32(&w.poisoned) != 0
}

// run is the worker's main loop (§4.6): pull the highest-priority, oldest
// task from the inbox and run it to completion, swallowing any panic;
// report back to the dispatcher whether the inbox emptied out; otherwise
// spin-then-park via the smartpoll gate.
func (w *worker) run() {
	for {
		if !w.inboxLock.TryLockUnlessAbandoned(w.isPoisoned) {
			return
		}
		td, ok := w.inbox.PopFront()
		w.inboxLock.Unlock()

		if ok {
			w.parker.Reset()
			w.runTask(td)

			// Re-observe the inbox after running the task, not before:
			// another goroutine's addTask may have appended to it while
			// this task ran (addTask never blocks on a busy worker), so a
			// pre-run snapshot would tell the dispatcher this worker is
			// free to take more work when it actually isn't.
			empty := true
			if w.inboxLock.TryLockUnlessAbandoned(w.isPoisoned) {
				empty = w.inbox.Len() == 0
				w.inboxLock.Unlock()
			}

			w.dispatcher.taskFinished(w.id, td, empty)
			atomic.AddInt64(&w.dispatcher.instantUsage, -1)
			continue
		}

		if w.parker.Idle() {
			return
		}
	}
}

func (w *worker) runTask(td TaskDescriptor) {
	defer func() {
		if r := recover(); r != nil {
			logTaskPanic(w.id, td, r)
		}
	}()
	td.Callable()
}
