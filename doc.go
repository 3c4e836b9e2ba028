// Package asyncio provides a single-threaded, cooperative asynchronous I/O
// runtime: an event loop driven by an OS reactor, a structured task model
// with first-class cancellation, promise/future rendezvous, cancel-safe
// synchronization primitives, bounded MPMC channels, buffered stream I/O, and
// a TLS engine that layers over any byte stream.
//
// # Architecture
//
// A [Loop] owns the reactor and a timer heap, and is the single execution
// context every [Task] resumes on. Tasks compose via callbacks and the
// combinators in this package ([Transform], [AndThen], [All], [Any],
// [Race], ...) rather than a language-level await, since Go has no
// coroutine suspension point to hook a scheduler into; every combinator
// still carries cancellation down into whichever task(s) it wraps, via
// each [Task]'s underlying frame. A [TaskGroup] serves the dynamic case,
// where membership grows and shrinks at runtime rather than being fixed
// at construction. Blocking work is off-loaded to a [WorkerPool] via
// [ToThread].
//
// # Cancellation
//
// [Task.Cancel] is synchronous and idempotent: it marks every non-finished
// frame in the subtree as cancelled, locked frames included, and invokes
// the currently-installed cancel hook, if any, at each level. A locked
// frame (one at a non-cancellable suspension point) does not hold the
// cancellation back from its children; only its own hook is deferred, and
// runs when the frame is unlocked. Cancel on a locked task returns
// [ErrLocked].
//
// # Thread safety
//
// [Loop.Post] is safe to call from any goroutine; resumptions it schedules
// always run on the loop's own goroutine. [Promise] resolution is
// thread-safe via an atomic state machine; its callbacks run synchronously
// on the goroutine that resolves it (or on the registering goroutine if the
// result is already there) and are not re-posted to any loop. [ToThread] is
// the exception: it hands its result back through [Loop.Post]. Channels are
// safe for concurrent use by senders and receivers on different goroutines.
//
// # Usage
//
//	result, err := asyncio.Run(func(loop *asyncio.Loop) *asyncio.Task[int] {
//		return asyncio.AndThen(asyncio.Sleep(loop, 10*time.Millisecond), func(struct{}) *asyncio.Task[int] {
//			return asyncio.From(loop, 42, nil)
//		})
//	})
//
// # Error types
//
// See [Error] and the Kind/Category constants for the task, I/O, channel,
// timeout, and TLS error taxonomy. Cancellation always surfaces as an
// [Error] with [KindCancelled].
package asyncio
