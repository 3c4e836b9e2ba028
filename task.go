// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// Task is a cancellable, observable handle to an in-flight asynchronous
// operation producing a T. It composes a [frame] (cancellation/call-tree
// node) with a result rendezvous; tasks are the unit every combinator in
// this package (see combinators.go) accepts and returns.
type Task[T any] struct {
	fr     *frame
	future *Future[T]

	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	cbs      []func(T, error)
}

// newTask allocates a task with a root frame (no parent); [newChildTask]
// makes one under a parent frame. The caller must call [Task.bindFuture] once the task's eventual
// result source is known.
func newTask[T any](l *Loop, name string) *Task[T] {
	return &Task[T]{fr: newFrame(l, name, nil)}
}

func newChildTask[T any](parent *frame, name string) *Task[T] {
	var l *Loop
	if parent != nil {
		l = parent.loop
	}
	return &Task[T]{fr: newFrame(l, name, parent)}
}

// setCancelHook installs the function invoked when this task's frame is
// cancelled while not locked or already finished.
func (t *Task[T]) setCancelHook(hook func() error) {
	t.fr.setCancelHook(hook)
}

// bindFuture ties the task's completion to f: once f resolves the task
// records the result, finishes its frame, and fires any callbacks
// registered via [Task.addCallback] (including pending ones from
// combinators awaiting this task).
func (t *Task[T]) bindFuture(f *Future[T]) {
	t.future = f
	f.OnComplete(t.complete)
}

func (t *Task[T]) complete(v T, err error) {
	t.mu.Lock()
	if t.resolved {
		t.mu.Unlock()
		return
	}
	t.resolved = true
	t.value, t.err = v, err
	cbs := t.cbs
	t.cbs = nil
	t.mu.Unlock()

	t.fr.finish()
	for _, cb := range cbs {
		cb(v, err)
	}
}

// addCallback registers cb to run once the task completes, or immediately
// (synchronously, on the calling goroutine) if it already has.
func (t *Task[T]) addCallback(cb func(T, error)) {
	t.mu.Lock()
	if t.resolved {
		v, err := t.value, t.err
		t.mu.Unlock()
		cb(v, err)
		return
	}
	t.cbs = append(t.cbs, cb)
	t.mu.Unlock()
}

// Cancel requests cancellation of the task and every child task spawned
// under it. Returns [ErrAlreadyCompleted] if the task has already finished,
// or [ErrLocked] if the task is currently at a non-cancellable suspension
// point.
func (t *Task[T]) Cancel() error { return t.fr.cancel() }

// Cancelled reports whether [Task.Cancel] has been called on this task or
// an ancestor.
func (t *Task[T]) Cancelled() bool { return t.fr.isCancelled() }

// Locked reports whether the task is currently at a non-cancellable
// suspension point.
func (t *Task[T]) Locked() bool { return t.fr.isLocked() }

// Done reports whether the task has produced a result (success or error).
func (t *Task[T]) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolved
}

// ID returns the task's process-unique identifier.
func (t *Task[T]) ID() string { return t.fr.id }

// Trace returns the task's ancestry as a slice of frame names, root first.
func (t *Task[T]) Trace() []string { return t.fr.trace() }

// CallTree returns a snapshot of the task's cancellation tree, rooted at
// this task, for diagnostics and logging.
func (t *Task[T]) CallTree() *CallTreeNode { return t.fr.snapshot() }

// Result returns the task's value and error once it has completed; callers
// should only call it after confirming [Task.Done], or via [Task.addCallback]
// / a combinator.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// lockFrame/unlockFrame expose the frame's locking to the primitives in
// this package (currently [Copy]) that need to mark a suspension point as
// non-cancellable without making frame itself public.
func (t *Task[T]) lockFrame()   { t.fr.lock() }
func (t *Task[T]) unlockFrame() { t.fr.unlock() }

// Transform returns a new task that resolves to fn(v) once t succeeds, or
// propagates t's error unchanged. Cancelling the returned task cancels t.
func Transform[T, R any](t *Task[T], fn func(T) R) *Task[R] {
	out := newChildTask[R](t.fr, "asyncio.Transform")
	out.setCancelHook(func() error { return t.Cancel() })
	p := NewPromise[R]()
	t.addCallback(func(v T, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(fn(v))
	})
	out.bindFuture(p.Future())
	return out
}

// TransformError returns a new task that resolves like t on success, or to
// fn(err) on failure, letting a task recover from a rejected parent.
func TransformError[T any](t *Task[T], fn func(error) (T, error)) *Task[T] {
	out := newChildTask[T](t.fr, "asyncio.TransformError")
	out.setCancelHook(func() error { return t.Cancel() })
	p := NewPromise[T]()
	t.addCallback(func(v T, err error) {
		if err == nil {
			p.Resolve(v)
			return
		}
		rv, rerr := fn(err)
		if rerr != nil {
			p.Reject(rerr)
			return
		}
		p.Resolve(rv)
	})
	out.bindFuture(p.Future())
	return out
}

// AndThen sequences t with fn, which is invoked with t's result once it
// succeeds and must return the follow-up task; the returned task completes
// with the follow-up task's result. Cancelling it cancels whichever of the
// two is currently in flight.
func AndThen[T, R any](t *Task[T], fn func(T) *Task[R]) *Task[R] {
	out := newChildTask[R](t.fr, "asyncio.AndThen")
	var mu sync.Mutex
	var next *Task[R]
	out.setCancelHook(func() error {
		mu.Lock()
		n := next
		mu.Unlock()
		if n != nil {
			return n.Cancel()
		}
		return t.Cancel()
	})
	p := NewPromise[R]()
	t.addCallback(func(v T, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		n := fn(v)
		mu.Lock()
		next = n
		mu.Unlock()
		n.addCallback(func(rv R, rerr error) {
			if rerr != nil {
				p.Reject(rerr)
				return
			}
			p.Resolve(rv)
		})
	})
	out.bindFuture(p.Future())
	return out
}

// OrElse returns a task that resolves like t on success, or, on failure,
// to the task produced by fn(err).
func OrElse[T any](t *Task[T], fn func(error) *Task[T]) *Task[T] {
	out := newChildTask[T](t.fr, "asyncio.OrElse")
	var mu sync.Mutex
	var next *Task[T]
	out.setCancelHook(func() error {
		mu.Lock()
		n := next
		mu.Unlock()
		if n != nil {
			return n.Cancel()
		}
		return t.Cancel()
	})
	p := NewPromise[T]()
	t.addCallback(func(v T, err error) {
		if err == nil {
			p.Resolve(v)
			return
		}
		n := fn(err)
		mu.Lock()
		next = n
		mu.Unlock()
		n.addCallback(func(rv T, rerr error) {
			if rerr != nil {
				p.Reject(rerr)
				return
			}
			p.Resolve(rv)
		})
	})
	out.bindFuture(p.Future())
	return out
}
