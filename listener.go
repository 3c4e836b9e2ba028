// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"net"
)

// Listener wraps a net.Listener so Accept returns a cancellable [Task]
// instead of blocking, offloading the blocking accept(2) call to a
// [WorkerPool] goroutine per spec.md §4.11 (raw socket bind/listen setup
// itself stays on net.Listen, outside this package's scope per spec.md §1).
type Listener struct {
	loop *Loop
	l    net.Listener
}

// NewListener wraps an already-bound net.Listener for async Accept.
func NewListener(l *Loop, ln net.Listener) *Listener {
	return &Listener{loop: l, l: ln}
}

// Accept returns a task resolving with the next inbound connection as a
// [ReadWriteCloser]. Cancelling the task closes the listener, which
// unblocks the in-flight accept(2) with an error; the listener is then no
// longer usable, matching net.Listener.Close's documented effect on a
// concurrent Accept.
func (ln *Listener) Accept() *Task[ReadWriteCloser] {
	t := newTask[ReadWriteCloser](ln.loop, "asyncio.Listener.Accept")
	accepted := ToThreadWithCancel(ln.loop, func(ctx context.Context) (net.Conn, error) {
		conn, err := ln.l.Accept()
		if err != nil {
			return nil, wrapErr(KindUnknown, "accept failed", err)
		}
		return conn, nil
	})

	p := NewPromise[ReadWriteCloser]()
	t.bindFuture(p.Future())
	accepted.addCallback(func(conn net.Conn, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(NewStream(ln.loop, conn))
	})

	t.setCancelHook(func() error {
		_ = ln.l.Close()
		return accepted.Cancel()
	})
	return t
}

// Close closes the underlying listener.
func (ln *Listener) Close() error { return ln.l.Close() }

// Addr returns the listener's network address.
func (ln *Listener) Addr() net.Addr { return ln.l.Addr() }
