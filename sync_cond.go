// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// Condition is an async condition variable paired with a [Mutex]: a task
// waiting on it releases the mutex and suspends until [Condition.Notify] or
// [Condition.NotifyAll] wakes it, at which point it re-acquires the mutex
// before resolving, mirroring the lock/wait/relock contract of a classic
// condition variable.
type Condition struct {
	loop *Loop
	mu   *Mutex

	waitMu  sync.Mutex
	waiters []*Promise[struct{}]
}

// NewCondition constructs a condition variable associated with mu.
func NewCondition(l *Loop, mu *Mutex) *Condition {
	return &Condition{loop: l, mu: mu}
}

// Wait releases the associated mutex and returns a task that resolves,
// with the mutex re-acquired, once notified.
func (c *Condition) Wait() *Task[struct{}] {
	out := newTask[struct{}](c.loop, "asyncio.Condition.Wait")
	notifyP := NewPromise[struct{}]()

	c.waitMu.Lock()
	c.waiters = append(c.waiters, notifyP)
	c.waitMu.Unlock()

	c.mu.Unlock()

	p := NewPromise[struct{}]()
	out.bindFuture(p.Future())

	// If Notify/NotifyAll already popped notifyP off c.waiters, the notify
	// has won the race: its completion callback below will reacquire the
	// mutex and resolve p successfully, so cancel must not reject p out
	// from under it (spec.md §4.7: "the notify wins").
	out.setCancelHook(func() error {
		c.waitMu.Lock()
		removed := false
		for i, other := range c.waiters {
			if other == notifyP {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				removed = true
				break
			}
		}
		c.waitMu.Unlock()
		if !removed {
			return ErrWillBeDone
		}
		p.Reject(ErrCancelled)
		return nil
	})

	notifyP.Future().OnComplete(func(struct{}, error) {
		reacquire := c.mu.Lock()
		reacquire.addCallback(func(struct{}, error) {
			p.Resolve(struct{}{})
		})
	})

	return out
}

// Notify wakes at most one waiting task, FIFO.
func (c *Condition) Notify() {
	c.waitMu.Lock()
	if len(c.waiters) == 0 {
		c.waitMu.Unlock()
		return
	}
	p := c.waiters[0]
	c.waiters = c.waiters[1:]
	c.waitMu.Unlock()
	p.Resolve(struct{}{})
}

// NotifyAll wakes every currently waiting task.
func (c *Condition) NotifyAll() {
	c.waitMu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.waitMu.Unlock()
	for _, p := range waiters {
		p.Resolve(struct{}{})
	}
}
