// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// Event is a manual-reset signal: any number of tasks can wait for it, and
// every one of them resolves (in FIFO order) as soon as [Event.Set] is
// called. Calling Set again before [Event.Clear] has no further effect;
// tasks created with [Event.Wait] after Set has already fired resolve
// immediately.
type Event struct {
	loop *Loop

	mu      sync.Mutex
	set     bool
	waiters []*Promise[struct{}]
}

// NewEvent constructs an initially-unset event bound to l.
func NewEvent(l *Loop) *Event {
	return &Event{loop: l}
}

// Wait returns a task that resolves once the event is set.
func (e *Event) Wait() *Task[struct{}] {
	t := newTask[struct{}](e.loop, "asyncio.Event.Wait")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	e.mu.Lock()
	if e.set {
		e.mu.Unlock()
		p.Resolve(struct{}{})
		return t
	}
	e.waiters = append(e.waiters, p)
	e.mu.Unlock()

	t.setCancelHook(func() error {
		e.mu.Lock()
		for i, other := range e.waiters {
			if other == p {
				e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
				break
			}
		}
		e.mu.Unlock()
		p.Reject(ErrCancelled)
		return nil
	})
	return t
}

// Set marks the event as signalled and resolves every current waiter.
func (e *Event) Set() {
	e.mu.Lock()
	e.set = true
	waiters := e.waiters
	e.waiters = nil
	e.mu.Unlock()
	for _, p := range waiters {
		p.Resolve(struct{}{})
	}
}

// Clear resets the event so future [Event.Wait] calls block again.
func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set = false
}

// IsSet reports whether the event is currently signalled.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}
