// Package goroutineid extracts the current goroutine's runtime id.
//
// Go deliberately exposes no supported thread-local storage. The standard
// workaround, used across the ecosystem for exactly this "identity scoped to
// the calling goroutine" problem, is to parse the numeric id out of the
// header line of a runtime.Stack dump. That id is stable for the lifetime of
// the goroutine and unique among currently-live goroutines, which is all the
// last-failure slot (see the future package) needs from it.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Get returns the id of the calling goroutine.
//
// This is necessarily a little expensive (it captures a stack trace), so
// callers that need it on a hot path should cache it for the lifetime of the
// goroutine rather than calling Get repeatedly.
func Get() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return -1
	}
	line = line[len(prefix):]
	if i := bytes.IndexByte(line, ' '); i >= 0 {
		line = line[:i]
	}
	id, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
