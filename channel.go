// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"sync"
	"sync/atomic"
	"time"
)

// ringBuffer is a fixed-capacity FIFO of T, grounded on
// original_source/include/asyncio/channel.h's zero::atomic::CircularBuffer
// reserve/commit (producer) and acquire/release (consumer) two-phase
// protocol, simplified to operate under the channel's own mutex rather than
// lock-free, since every caller already holds it.
type ringBuffer[T any] struct {
	buf   []T
	head  int
	count int
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	return &ringBuffer[T]{buf: make([]T, capacity)}
}

func (r *ringBuffer[T]) full() bool  { return r.count == len(r.buf) }
func (r *ringBuffer[T]) empty() bool { return r.count == 0 }

// reserve+commit: push writes the element and makes it visible atomically
// under the caller's lock.
func (r *ringBuffer[T]) push(v T) {
	idx := (r.head + r.count) % len(r.buf)
	r.buf[idx] = v
	r.count++
}

// acquire+release: pop reads and frees the oldest element.
func (r *ringBuffer[T]) pop() T {
	v := r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return v
}

// channelCore is the shared state behind every [Sender]/[Receiver] clone of
// one [Channel], grounded on channel.h's ChannelCore: a mutex-guarded ring
// buffer plus two FIFO pending-waiter lists (one for blocked senders, one
// for blocked receivers) and atomic reference counts that close the
// channel once the last handle on either side is dropped.
type channelCore[T any] struct {
	loop   *Loop
	logger *eventLogger

	mu     sync.Mutex
	buf    *ringBuffer[T]
	closed bool

	sendWaiters []*Promise[struct{}]
	recvWaiters []*Promise[struct{}]

	senderCount   atomic.Int64
	receiverCount atomic.Int64
}

func (c *channelCore[T]) notifySenders() {
	c.mu.Lock()
	waiters := c.sendWaiters
	c.sendWaiters = nil
	c.mu.Unlock()
	for _, p := range waiters {
		p.Resolve(struct{}{})
	}
}

func (c *channelCore[T]) notifyReceivers() {
	c.mu.Lock()
	waiters := c.recvWaiters
	c.recvWaiters = nil
	c.mu.Unlock()
	for _, p := range waiters {
		p.Resolve(struct{}{})
	}
}

func (c *channelCore[T]) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.notifySenders()
	c.notifyReceivers()
}

// Channel is a bounded, multi-producer multi-consumer queue of T. Use
// [NewChannel] to create one, then [Channel.Sender]/[Channel.Receiver] to
// obtain reference-counted handles: the channel closes automatically once
// every sender or every receiver handle has been dropped via
// [Sender.Close]/[Receiver.Close], matching spec.md's "last sender or last
// receiver drop closes the channel" rule, or explicitly via [Channel.Close].
// Once closed, senders observe [ErrDisconnected] immediately and receivers
// observe it once the buffer drains.
type Channel[T any] struct {
	core *channelCore[T]
}

// NewChannel constructs a channel with room for capacity buffered elements.
func NewChannel[T any](l *Loop, capacity int, opts ...ChannelOption) (*Channel[T], error) {
	cfg, err := resolveChannelOptions(opts)
	if err != nil {
		return nil, err
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Channel[T]{core: &channelCore[T]{
		loop:   l,
		logger: cfg.logger,
		buf:    newRingBuffer[T](capacity),
	}}, nil
}

// Occupancy reports the channel's current buffered element count and its
// fixed capacity, for exporting as a Prometheus gauge via
// [NewChannelCollector].
func (c *Channel[T]) Occupancy() (length, capacity int) {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	return c.core.buf.count, len(c.core.buf.buf)
}

// Close closes the channel immediately regardless of outstanding sender or
// receiver handles, matching spec.md §4.8's explicit close() trigger.
func (c *Channel[T]) Close() {
	c.core.close()
}

// Sender returns a new, independently-closeable handle to the write side.
func (c *Channel[T]) Sender() *Sender[T] {
	c.core.senderCount.Add(1)
	return &Sender[T]{core: c.core}
}

// Receiver returns a new, independently-closeable handle to the read side.
func (c *Channel[T]) Receiver() *Receiver[T] {
	c.core.receiverCount.Add(1)
	return &Receiver[T]{core: c.core}
}

// Sender is a reference-counted write handle to a [Channel].
type Sender[T any] struct {
	core    *channelCore[T]
	once    sync.Once
	closed  bool
	closeMu sync.Mutex
}

// Clone returns another handle sharing the same channel, incrementing the
// sender reference count.
func (s *Sender[T]) Clone() *Sender[T] {
	s.core.senderCount.Add(1)
	return &Sender[T]{core: s.core}
}

// TrySend attempts to enqueue v without waiting.
func (s *Sender[T]) TrySend(v T) error {
	s.core.mu.Lock()
	if s.core.closed {
		s.core.mu.Unlock()
		return &Error{Kind: KindDisconnected, Message: ErrDisconnected.Message, Value: v}
	}
	if s.core.buf.full() {
		s.core.mu.Unlock()
		return &Error{Kind: KindFull, Message: ErrFull.Message, Value: v}
	}
	s.core.buf.push(v)
	s.core.mu.Unlock()
	s.core.notifyReceivers()
	return nil
}

// SendSync blocks the calling goroutine (not the loop) until v is enqueued,
// the channel closes, or timeout elapses (timeout <= 0 means no deadline).
func (s *Sender[T]) SendSync(v T, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		err := s.TrySend(v)
		if err == nil {
			return nil
		}
		var ae *Error
		if ok := asError(err, &ae); ok && ae.Kind == KindDisconnected {
			return err
		}
		ready := make(chan struct{}, 1)
		s.core.mu.Lock()
		if !s.core.buf.full() || s.core.closed {
			s.core.mu.Unlock()
			continue
		}
		p := NewPromise[struct{}]()
		s.core.sendWaiters = append(s.core.sendWaiters, p)
		s.core.mu.Unlock()
		p.Future().OnComplete(func(struct{}, error) { close(ready) })
		select {
		case <-ready:
		case <-deadline:
			return ErrTimedOut
		}
	}
}

// Send returns a [Task] that resolves once v is enqueued, cancellable while
// waiting for room.
func (s *Sender[T]) Send(v T) *Task[struct{}] {
	t := newTask[struct{}](s.core.loop, "asyncio.Sender.Send")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	var waiter *Promise[struct{}]

	var attempt func()
	attempt = func() {
		err := s.TrySend(v)
		if err == nil {
			p.Resolve(struct{}{})
			return
		}
		var ae *Error
		if asError(err, &ae) && ae.Kind == KindDisconnected {
			p.Reject(err)
			return
		}
		s.core.mu.Lock()
		wp := NewPromise[struct{}]()
		waiter = wp
		s.core.sendWaiters = append(s.core.sendWaiters, wp)
		s.core.mu.Unlock()
		wp.Future().OnComplete(func(struct{}, error) { attempt() })
	}
	attempt()

	// On cancel, splice the pending waiter out of sendWaiters before
	// rejecting: if notifySenders already claimed it (the waiter is no
	// longer present), a retry is already in flight and must be left to
	// settle p itself, rather than rejecting a send that may still
	// succeed and land v in the buffer for a caller that already moved on.
	t.setCancelHook(func() error {
		s.core.mu.Lock()
		wp := waiter
		removed := false
		if wp != nil {
			for i, w := range s.core.sendWaiters {
				if w == wp {
					s.core.sendWaiters = append(s.core.sendWaiters[:i], s.core.sendWaiters[i+1:]...)
					removed = true
					break
				}
			}
		}
		s.core.mu.Unlock()
		if removed {
			p.Reject(ErrCancelled)
		}
		return nil
	})
	return t
}

// Close drops this handle; once every [Sender] handle to the channel has
// been closed, the channel itself closes.
func (s *Sender[T]) Close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.core.senderCount.Add(-1) == 0 {
		s.core.close()
	}
}

// Receiver is a reference-counted read handle to a [Channel].
type Receiver[T any] struct {
	core    *channelCore[T]
	closed  bool
	closeMu sync.Mutex
}

// Clone returns another handle sharing the same channel, incrementing the
// receiver reference count.
func (r *Receiver[T]) Clone() *Receiver[T] {
	r.core.receiverCount.Add(1)
	return &Receiver[T]{core: r.core}
}

// TryReceive attempts to dequeue a value without waiting.
func (r *Receiver[T]) TryReceive() (T, error) {
	var zero T
	r.core.mu.Lock()
	if !r.core.buf.empty() {
		v := r.core.buf.pop()
		r.core.mu.Unlock()
		r.core.notifySenders()
		return v, nil
	}
	closed := r.core.closed
	r.core.mu.Unlock()
	if closed {
		return zero, ErrDisconnected
	}
	return zero, ErrEmpty
}

// ReceiveSync blocks the calling goroutine (not the loop) until a value is
// available, the channel closes and drains, or timeout elapses.
func (r *Receiver[T]) ReceiveSync(timeout time.Duration) (T, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		v, err := r.TryReceive()
		if err == nil || err == ErrDisconnected {
			return v, err
		}
		ready := make(chan struct{}, 1)
		r.core.mu.Lock()
		if !r.core.buf.empty() || r.core.closed {
			r.core.mu.Unlock()
			continue
		}
		p := NewPromise[struct{}]()
		r.core.recvWaiters = append(r.core.recvWaiters, p)
		r.core.mu.Unlock()
		p.Future().OnComplete(func(struct{}, error) { close(ready) })
		select {
		case <-ready:
		case <-deadline:
			var zero T
			return zero, ErrTimedOut
		}
	}
}

// Receive returns a [Task] that resolves with the next value, cancellable
// while waiting.
func (r *Receiver[T]) Receive() *Task[T] {
	t := newTask[T](r.core.loop, "asyncio.Receiver.Receive")
	p := NewPromise[T]()
	t.bindFuture(p.Future())

	var waiter *Promise[struct{}]

	var attempt func()
	attempt = func() {
		v, err := r.TryReceive()
		if err == nil || err == ErrDisconnected {
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(v)
			return
		}
		r.core.mu.Lock()
		wp := NewPromise[struct{}]()
		waiter = wp
		r.core.recvWaiters = append(r.core.recvWaiters, wp)
		r.core.mu.Unlock()
		wp.Future().OnComplete(func(struct{}, error) { attempt() })
	}
	attempt()

	// See [Sender.Send]'s cancel hook: only reject if the pending waiter
	// was actually spliced out here, so a retry already triggered by
	// notifyReceivers (which silently dequeues a real value) is never
	// rejected out from under it.
	t.setCancelHook(func() error {
		r.core.mu.Lock()
		wp := waiter
		removed := false
		if wp != nil {
			for i, w := range r.core.recvWaiters {
				if w == wp {
					r.core.recvWaiters = append(r.core.recvWaiters[:i], r.core.recvWaiters[i+1:]...)
					removed = true
					break
				}
			}
		}
		r.core.mu.Unlock()
		if removed {
			p.Reject(ErrCancelled)
		}
		return nil
	})
	return t
}

// Close drops this handle; once every [Receiver] handle to the channel has
// been closed, the channel itself closes, mirroring [Sender.Close].
func (r *Receiver[T]) Close() {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.core.receiverCount.Add(-1) == 0 {
		r.core.close()
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
