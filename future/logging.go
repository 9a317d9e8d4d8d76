package future

import (
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// logger is the package-wide, opt-in structured logger. Its zero value (nil)
// is a safe no-op per logiface's own nil-receiver contract, so this package
// never pays for logging unless SetLogger has been called.
var logger atomic.Pointer[logiface.Logger[*stumpy.Event]]

// SetLogger installs l as the logger used for future/promise lifecycle
// events (swallowed callback panics, at Warn). Passing nil disables logging,
// the default. Logging never participates in, or blocks on, any
// shared-state lock.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	logger.Store(l)
}

func log() *logiface.Logger[*stumpy.Event] {
	return logger.Load()
}

func logCallbackPanic(kind string, recovered any) {
	l := log()
	if l == nil {
		return
	}
	l.Warning().Str(`kind`, kind).Str(`panic`, toLogString(recovered)).Log(`future callback panicked, swallowing`)
}

func toLogString(v any) string {
	if v == nil {
		return ``
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
