package future

import (
	"errors"
	"fmt"
)

// FailureFromString builds a failure value of type E from a plain message,
// the way the default combinator failures ("Canceled", "Result wasn't good
// enough", "Exception: ...") are constructed. E must be either string or
// error (the only two failure types this package's own combinators ever
// manufacture); for any other E it returns the zero value, matching the
// upstream behavior of falling back to a default-constructed failure when no
// specialization applies.
func FailureFromString[E any](s string) E {
	var zero E
	switch p := any(&zero).(type) {
	case *string:
		*p = s
	case *error:
		*p = errors.New(s)
	}
	return zero
}

// exceptionFailure converts a recovered panic value into a failure of type
// E, prefixed the way the upstream library tags caught exceptions.
func exceptionFailure[E any](recovered any) E {
	if recovered == nil {
		return FailureFromString[E]("Exception")
	}
	if err, ok := recovered.(error); ok {
		return FailureFromString[E](fmt.Sprintf("Exception: %s", err.Error()))
	}
	return FailureFromString[E](fmt.Sprintf("Exception: %v", recovered))
}

// ExceptionFailure is the exported form of exceptionFailure, for callers
// outside this package (such as tasks.Run) that need to convert a
// recovered panic into the same kind of failure value this package's own
// combinators produce.
func ExceptionFailure[E any](recovered any) E {
	return exceptionFailure[E](recovered)
}

// rejectedFailure is the default payload delivered by Filter when its
// predicate returns false.
func rejectedFailure[E any]() E {
	return FailureFromString[E]("Result wasn't good enough")
}

// canceledFailure is the default payload delivered by CancelableFuture.Cancel.
func canceledFailure[E any]() E {
	return FailureFromString[E]("Canceled")
}
