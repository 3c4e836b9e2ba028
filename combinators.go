// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// From wraps an already-available value as a completed [Task], for
// interoperating with combinators when a result is already on hand.
func From[T any](l *Loop, v T, err error) *Task[T] {
	t := newTask[T](l, "asyncio.From")
	p := NewPromise[T]()
	t.bindFuture(p.Future())
	if err != nil {
		p.Reject(err)
	} else {
		p.Resolve(v)
	}
	return t
}

// Spawn runs fn on l's loop thread (scheduled via [Loop.Post]) and returns
// a task for its eventual result, so synchronous work can be folded into a
// combinator alongside genuinely asynchronous tasks.
func Spawn[T any](l *Loop, fn func() (T, error)) *Task[T] {
	t := newTask[T](l, "asyncio.Spawn")
	p := NewPromise[T]()
	t.bindFuture(p.Future())
	l.Post(func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}, 0)
	return t
}

// All waits for every task to succeed, returning their results in argument
// order. If any task fails, All cancels every other still-pending task and
// resolves with the first error encountered. Cancelling the returned task
// cancels every member.
func All[T any](l *Loop, tasks ...*Task[T]) *Task[[]T] {
	out := newTask[[]T](l, "asyncio.All")
	out.setCancelHook(func() error {
		for _, t := range tasks {
			_ = t.Cancel()
		}
		return nil
	})
	p := NewPromise[[]T]()
	out.bindFuture(p.Future())

	if len(tasks) == 0 {
		p.Resolve(nil)
		return out
	}

	var mu sync.Mutex
	results := make([]T, len(tasks))
	remaining := len(tasks)
	var failed bool

	for i, t := range tasks {
		i, t := i, t
		t.addCallback(func(v T, err error) {
			mu.Lock()
			defer mu.Unlock()
			if failed {
				return
			}
			if err != nil {
				failed = true
				for _, other := range tasks {
					if other != t {
						_ = other.Cancel()
					}
				}
				p.Reject(err)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				p.Resolve(results)
			}
		})
	}
	return out
}

// Settled is one member's outcome within an [AllSettled] result.
type Settled[T any] struct {
	Value T
	Err   error
}

// AllSettled waits for every task to complete, successfully or not, and
// never itself fails: the result slice reports each member's outcome in
// argument order.
func AllSettled[T any](l *Loop, tasks ...*Task[T]) *Task[[]Settled[T]] {
	out := newTask[[]Settled[T]](l, "asyncio.AllSettled")
	out.setCancelHook(func() error {
		for _, t := range tasks {
			_ = t.Cancel()
		}
		return nil
	})
	p := NewPromise[[]Settled[T]]()
	out.bindFuture(p.Future())

	if len(tasks) == 0 {
		p.Resolve(nil)
		return out
	}

	var mu sync.Mutex
	results := make([]Settled[T], len(tasks))
	remaining := len(tasks)

	for i, t := range tasks {
		i := i
		t.addCallback(func(v T, err error) {
			mu.Lock()
			defer mu.Unlock()
			results[i] = Settled[T]{Value: v, Err: err}
			remaining--
			if remaining == 0 {
				p.Resolve(results)
			}
		})
	}
	return out
}

// Any resolves with the first task to succeed, cancelling the rest. If
// every task fails, Any fails with an [AggregateError] collecting every
// member's error in completion order.
func Any[T any](l *Loop, tasks ...*Task[T]) *Task[T] {
	out := newTask[T](l, "asyncio.Any")
	out.setCancelHook(func() error {
		for _, t := range tasks {
			_ = t.Cancel()
		}
		return nil
	})
	p := NewPromise[T]()
	out.bindFuture(p.Future())

	if len(tasks) == 0 {
		p.Reject(&AggregateError{})
		return out
	}

	var mu sync.Mutex
	var errs []error
	remaining := len(tasks)
	var succeeded bool

	for _, t := range tasks {
		t := t
		t.addCallback(func(v T, err error) {
			mu.Lock()
			defer mu.Unlock()
			if succeeded {
				return
			}
			if err == nil {
				succeeded = true
				for _, other := range tasks {
					if other != t {
						_ = other.Cancel()
					}
				}
				p.Resolve(v)
				return
			}
			errs = append(errs, err)
			remaining--
			if remaining == 0 {
				p.Reject(&AggregateError{Errors: errs})
			}
		})
	}
	return out
}

// Race resolves with whichever task completes first, success or failure,
// cancelling every other still-pending member.
func Race[T any](l *Loop, tasks ...*Task[T]) *Task[T] {
	out := newTask[T](l, "asyncio.Race")
	out.setCancelHook(func() error {
		for _, t := range tasks {
			_ = t.Cancel()
		}
		return nil
	})
	p := NewPromise[T]()
	out.bindFuture(p.Future())

	if len(tasks) == 0 {
		p.Reject(wrapErr(KindInvalidArgument, "Race requires at least one task", nil))
		return out
	}

	var mu sync.Mutex
	var settled bool

	for _, t := range tasks {
		t := t
		t.addCallback(func(v T, err error) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				return
			}
			settled = true
			for _, other := range tasks {
				if other != t {
					_ = other.Cancel()
				}
			}
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(v)
		})
	}
	return out
}
