// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"sync"
	"sync/atomic"
)

// futureState is the atomic state machine underlying [Future]: a value can
// arrive before a callback is attached, or a callback can be attached
// before the value arrives, and either ordering must resolve to exactly
// one callback invocation with no lock held across user code.
type futureState int32

const (
	futurePending futureState = iota
	futureHasResult
	futureHasCallback
	futureDone
)

// Future is the read side of a [Promise]: a single-assignment, single
// subscriber rendezvous between the producer of a T and the task awaiting
// it. Grounded on spec.md §3's PENDING/ONLY_RESULT/ONLY_CALLBACK/DONE
// promise state machine, realized as a lock-free CAS loop over the two
// possible race orderings rather than a goroutine/channel rendezvous, so
// resolving a promise from any goroutine never blocks.
type Future[T any] struct {
	state atomic.Int32

	mu    sync.Mutex
	value T
	err   error
	cb    func(T, error)
}

// OnComplete registers cb to run with the future's result. cb runs
// synchronously on whichever goroutine causes the race to resolve: the
// resolving goroutine if OnComplete arrived first, or this goroutine
// immediately if the result already arrived.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	for {
		switch futureState(f.state.Load()) {
		case futurePending:
			f.mu.Lock()
			f.cb = cb
			f.mu.Unlock()
			if f.state.CompareAndSwap(int32(futurePending), int32(futureHasCallback)) {
				return
			}
			// lost the race: a result arrived concurrently, retry.
		case futureHasResult:
			f.mu.Lock()
			v, err := f.value, f.err
			f.mu.Unlock()
			if f.state.CompareAndSwap(int32(futureHasResult), int32(futureDone)) {
				cb(v, err)
				return
			}
		default:
			// futureHasCallback/futureDone: a callback is already attached
			// (or the future resolved without one ever completing this
			// call); a second subscriber is a programming error, ignore.
			return
		}
	}
}

func (f *Future[T]) setResult(v T, err error) {
	for {
		switch futureState(f.state.Load()) {
		case futurePending:
			f.mu.Lock()
			f.value, f.err = v, err
			f.mu.Unlock()
			if f.state.CompareAndSwap(int32(futurePending), int32(futureHasResult)) {
				return
			}
		case futureHasCallback:
			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if f.state.CompareAndSwap(int32(futureHasCallback), int32(futureDone)) {
				if cb != nil {
					cb(v, err)
				}
				return
			}
		default:
			// already resolved once: spec.md treats a second resolution as
			// a no-op, matching idempotent Promise.resolve semantics.
			return
		}
	}
}

// Done reports whether the future has resolved.
func (f *Future[T]) Done() bool {
	s := futureState(f.state.Load())
	return s == futureHasResult || s == futureDone
}

// Promise is the write side of a [Future]: exactly one of [Promise.Resolve]
// or [Promise.Reject] should be called; only the first call has effect.
type Promise[T any] struct {
	future *Future[T]
}

// NewPromise constructs a fresh, pending promise/future pair.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{future: &Future[T]{}}
}

// Future returns the promise's read side.
func (p *Promise[T]) Future() *Future[T] { return p.future }

// Resolve completes the future successfully with v.
func (p *Promise[T]) Resolve(v T) { p.future.setResult(v, nil) }

// Reject completes the future with err.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.future.setResult(zero, err)
}
