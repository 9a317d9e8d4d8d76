// Package future provides the future/promise algebra: Future[T, E] and
// Promise[T, E] carry a value of type T or a failure of type E that may not
// exist yet, plus a set of combinators (Map, FlatMap, AndThen, Filter,
// Recover, Zip, Sequence, the Inner* family, and Repeat) built on top of a
// small shared-state core.
//
// None of the combinators block: each allocates a fresh result future,
// registers callbacks on its input(s), and returns immediately. A failure
// propagates through value-transforming combinators unchanged; Recover and
// its variants are the only ones that consume a failure. A panic inside any
// combinator function becomes an "Exception: ..." failure on the result
// rather than crashing the caller.
package future
