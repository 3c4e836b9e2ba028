// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// Mutex is a task-aware mutual exclusion lock: acquiring it when already
// held returns a pending [Task] that resolves once every earlier waiter has
// released it, FIFO. Unlike sync.Mutex, waiting is cancellable: cancelling
// the returned task before the lock is granted removes it from the queue
// with no further effect.
type Mutex struct {
	loop *Loop

	mu      sync.Mutex
	held    bool
	waiters []*mutexWaiter
}

type mutexWaiter struct {
	p        *Promise[struct{}]
	released bool
}

// NewMutex constructs an unheld mutex bound to l.
func NewMutex(l *Loop) *Mutex {
	return &Mutex{loop: l}
}

// Lock returns a task that resolves once the mutex is acquired.
func (m *Mutex) Lock() *Task[struct{}] {
	t := newTask[struct{}](m.loop, "asyncio.Mutex.Lock")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	m.mu.Lock()
	if !m.held {
		m.held = true
		m.mu.Unlock()
		p.Resolve(struct{}{})
		return t
	}
	w := &mutexWaiter{p: p}
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	t.setCancelHook(func() error {
		m.mu.Lock()
		for i, other := range m.waiters {
			if other == w {
				m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		p.Reject(ErrCancelled)
		return nil
	})
	return t
}

// TryLock attempts to acquire the mutex without waiting, reporting whether
// it succeeded.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return false
	}
	m.held = true
	return true
}

// Unlock releases the mutex, handing it directly to the next FIFO waiter
// (if any) rather than reopening it for contention.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	for len(m.waiters) > 0 {
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()
		w.p.Resolve(struct{}{})
		return
	}
	m.held = false
	m.mu.Unlock()
}
