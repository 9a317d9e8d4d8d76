// Package tasks implements a capacity-bounded task dispatcher: callables
// are classified by TaskType (Custom, Intensive, ThreadBound), prioritized
// by TaskPriority, and run on a lazily grown pool of worker goroutines.
//
// A single process-wide Dispatcher is reachable via Instance(); tests and
// embedders that need an isolated instance can call NewDispatcher
// directly. Run, RunFuture and RunAndForget are the ergonomic entry points
// that wrap a callable as a TaskDescriptor: Run hands back a future.Future
// for a plain callable's result, RunFuture does the same for a callable
// that itself returns a future.Future (chained rather than double-wrapped),
// and RunAndForget returns nothing. RunEach and ClusteredRun are their container-shaped
// siblings: one task per element versus a data-parallel map over a
// handful of clusters sized to the target subpool's capacity.
package tasks
