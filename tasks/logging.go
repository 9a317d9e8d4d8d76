package tasks

import (
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// logger is the package-wide, opt-in structured logger for dispatcher and
// worker lifecycle events. Its zero value (nil) is a safe logiface no-op,
// so nothing is logged unless SetLogger is called. Logging is best-effort.
// Worker spawns are logged while the dispatcher spinlock is held; the other
// events are logged outside it, and nothing is logged under a worker's
// inbox lock.
var logger atomic.Pointer[logiface.Logger[*stumpy.Event]]

// SetLogger installs l as the logger used for dispatcher/worker events
// (worker spawns and capacity changes at Debug; swallowed task panics at
// Warn). Passing nil disables logging, the
// default.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	logger.Store(l)
}

func log() *logiface.Logger[*stumpy.Event] {
	return logger.Load()
}

func logWorkerSpawned(id int) {
	if l := log(); l != nil {
		l.Debug().Int(`worker`, id).Log(`worker spawned`)
	}
}

func logTaskPanic(workerID int, td TaskDescriptor, recovered any) {
	l := log()
	if l == nil {
		return
	}
	msg := fmt.Sprint(recovered)
	if err, ok := recovered.(error); ok {
		msg = err.Error()
	}
	l.Warning().
		Int(`worker`, workerID).
		Str(`type`, td.Type.String()).
		Int(`tag`, int(td.Tag)).
		Str(`panic`, msg).
		Log(`task panicked, swallowing`)
}

func logCapacityChange(what string, value int) {
	if l := log(); l != nil {
		l.Debug().Str(`setting`, what).Int(`value`, value).Log(`dispatcher capacity changed`)
	}
}
