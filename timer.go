// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"sync"
	"time"
)

// Sleep returns a task that resolves successfully after duration d has
// elapsed on l's loop, or fails with [ErrCancelled] if cancelled first.
func Sleep(l *Loop, d time.Duration) *Task[struct{}] {
	t := newTask[struct{}](l, "asyncio.Sleep")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	cancelTimer := l.ScheduleTimer(d, func() {
		p.Resolve(struct{}{})
	})
	t.setCancelHook(func() error {
		cancelTimer()
		p.Reject(ErrCancelled)
		return nil
	})
	return t
}

// Timeout races t against a [Sleep] of d: if t finishes first, Timeout
// resolves with its result; if the deadline elapses first, Timeout cancels
// t and fails with [ErrElapsed].
func Timeout[T any](l *Loop, t *Task[T], d time.Duration) *Task[T] {
	out := newChildTask[T](t.fr, "asyncio.Timeout")
	p := NewPromise[T]()
	out.bindFuture(p.Future())

	var mu mutexState
	cancelTimer := l.ScheduleTimer(d, func() {
		if !mu.tryMarkSettled() {
			return
		}
		_ = t.Cancel()
		p.Reject(ErrElapsed)
	})

	out.setCancelHook(func() error {
		if mu.tryMarkSettled() {
			cancelTimer()
			_ = t.Cancel()
			p.Reject(ErrCancelled)
		}
		return nil
	})

	t.addCallback(func(v T, err error) {
		if !mu.tryMarkSettled() {
			return
		}
		cancelTimer()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	})

	return out
}

// mutexState is a tiny single-shot guard: the first caller to
// tryMarkSettled wins, every later caller gets false. Used by [Timeout] to
// arbitrate between "the timer fired", "the underlying task finished", and
// "the caller cancelled" all racing to settle the same promise.
type mutexState struct {
	once sync.Once
}

func (s *mutexState) tryMarkSettled() bool {
	won := false
	s.once.Do(func() { won = true })
	return won
}
