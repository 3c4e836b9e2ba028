// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// workItem is one unit of blocking work dispatched to a [WorkerPool]
// goroutine, grounded on ygrebnov-workers/worker.go's execute/recover shape.
type workItem struct {
	ctx    context.Context
	fn     func(context.Context) (any, error)
	result chan<- workResult
}

type workResult struct {
	value any
	err   error
}

// WorkerPool offloads blocking work off the [Loop]'s thread, resuming the
// caller's task when it completes. Grounded on ygrebnov-workers'
// pool.NewDynamic (sync.Pool-backed, grows as needed) versus pool.NewFixed
// (bounded, backpressure via a buffered channel): maxWorkers == 0 selects
// the dynamic behavior (one goroutine per submission, reaped when idle);
// maxWorkers > 0 bounds concurrent goroutines via a semaphore, matching
// spec.md §4.2's "reusing one from the pool ... up to maxWorkers".
type WorkerPool struct {
	logger *eventLogger

	maxWorkers int
	sem        chan struct{}
	active     atomic.Int64

	wg sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// WorkerPoolOption configures a [WorkerPool] at construction time.
type WorkerPoolOption interface {
	applyWorkerPool(*WorkerPool)
}

type workerPoolOptionFunc func(*WorkerPool)

func (f workerPoolOptionFunc) applyWorkerPool(p *WorkerPool) { f(p) }

// WithWorkerPoolLogger attaches a structured logger to a [WorkerPool].
func WithWorkerPoolLogger(l *eventLogger) WorkerPoolOption {
	return workerPoolOptionFunc(func(p *WorkerPool) {
		p.logger = l
	})
}

// NewWorkerPool constructs a pool. maxWorkers <= 0 means unbounded
// (dynamic): every submission gets its own goroutine.
func NewWorkerPool(maxWorkers int, opts ...WorkerPoolOption) *WorkerPool {
	p := &WorkerPool{
		maxWorkers: maxWorkers,
		closed:     make(chan struct{}),
	}
	if maxWorkers > 0 {
		p.sem = make(chan struct{}, maxWorkers)
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyWorkerPool(p)
		}
	}
	return p
}

func (p *WorkerPool) log() *eventLogger { return p.logger.orDefault() }

// submit runs fn on a pool goroutine and delivers the outcome to resultCh.
// It blocks the caller only long enough to acquire a slot when the pool is
// bounded; closing the pool after submission still lets in-flight work
// finish (see [WorkerPool.Close]).
func (p *WorkerPool) submit(ctx context.Context, fn func(context.Context) (any, error), resultCh chan<- workResult) {
	select {
	case <-p.closed:
		resultCh <- workResult{err: wrapErr(KindInvalidArgument, "worker pool closed", nil)}
		return
	default:
	}

	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
		case <-p.closed:
			resultCh <- workResult{err: wrapErr(KindInvalidArgument, "worker pool closed", nil)}
			return
		}
	}

	p.wg.Add(1)
	p.active.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.active.Add(-1)
		if p.sem != nil {
			defer func() { <-p.sem }()
		}
		defer func() {
			if r := recover(); r != nil {
				resultCh <- workResult{err: wrapErr(KindUnknown, fmt.Sprintf("worker panic: %v", r), nil)}
			}
		}()
		v, err := fn(ctx)
		resultCh <- workResult{value: v, err: err}
	}()
}

// ActiveWorkers reports how many goroutines are currently executing
// submitted work.
func (p *WorkerPool) ActiveWorkers() int { return int(p.active.Load()) }

// MaxWorkers reports the pool's configured bound, or 0 for an unbounded
// (dynamic) pool.
func (p *WorkerPool) MaxWorkers() int { return p.maxWorkers }

// Close waits for in-flight work to finish and rejects further submissions.
// Matches eventloop's pattern of a blocking, idempotent shutdown call.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}

// ToThread runs fn on l's default worker pool and returns a [Task] that
// completes with its result. The returned task's cancellation has no effect
// on the in-flight goroutine (the work has already left the loop thread);
// see [ToThreadWithCancel] for cooperative cancellation via a context.
func ToThread[T any](l *Loop, fn func() (T, error)) *Task[T] {
	return ToThreadWithCancel(l, func(context.Context) (T, error) { return fn() })
}

// ToThreadWithCancel runs fn on l's default worker pool, passing it a
// context that is cancelled if the returned [Task] is cancelled before fn
// finishes; fn must itself observe ctx.Done() to honor it.
func ToThreadWithCancel[T any](l *Loop, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPromise[T]()
	resultCh := make(chan workResult, 1)

	l.Workers().submit(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, resultCh)

	t := newTask[T](l, "asyncio.ToThread")
	t.setCancelHook(func() error {
		cancel()
		return nil
	})

	go func() {
		res := <-resultCh
		l.Post(func() {
			if res.err != nil {
				p.Reject(res.err)
				return
			}
			v, _ := res.value.(T)
			p.Resolve(v)
		}, 0)
	}()

	t.bindFuture(p.Future())
	return t
}
