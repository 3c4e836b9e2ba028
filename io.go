// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"io"
	"sync"
)

// Reader is the async analogue of io.Reader: Read returns a task for the
// eventual (n, err), and accepts a context so a blocking read offloaded to
// a [WorkerPool] can be cancelled.
type Reader interface {
	Read(ctx context.Context, p []byte) *Task[int]
}

// Writer is the async analogue of io.Writer.
type Writer interface {
	Write(ctx context.Context, p []byte) *Task[int]
}

// Closeable is anything that releases underlying resources, synchronously;
// asyncio never needs an async close since close never blocks on I/O in
// any backend wired in this package.
type Closeable interface {
	Close() error
}

// Seekable is the async analogue of io.Seeker.
type Seekable interface {
	Seek(ctx context.Context, offset int64, whence int) *Task[int64]
}

// ReadWriteCloser groups the three capabilities a stream socket or pipe
// typically provides.
type ReadWriteCloser interface {
	Reader
	Writer
	Closeable
}

// netStream adapts a net.Conn-shaped blocking stream onto the
// Reader/Writer interfaces by running the blocking call on a [WorkerPool],
// grounded on spec.md §4.9's requirement that stream I/O never blocks the
// loop thread.
type netStream struct {
	loop *Loop
	rw   io.ReadWriter
	pool *WorkerPool
}

// NewStream wraps a blocking io.ReadWriter (e.g. a net.Conn) as an async
// [Reader]/[Writer], offloading each call to l's default worker pool.
func NewStream(l *Loop, rw io.ReadWriter) ReadWriteCloser {
	return &netStream{loop: l, rw: rw, pool: l.Workers()}
}

func (s *netStream) Read(ctx context.Context, p []byte) *Task[int] {
	return ToThreadWithCancel(s.loop, func(ctx context.Context) (int, error) {
		n, err := s.rw.Read(p)
		return n, translateIOError(err)
	})
}

func (s *netStream) Write(ctx context.Context, p []byte) *Task[int] {
	return ToThreadWithCancel(s.loop, func(ctx context.Context) (int, error) {
		n, err := s.rw.Write(p)
		return n, translateIOError(err)
	})
}

func (s *netStream) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func translateIOError(err error) error {
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		return ErrUnexpectedEOF
	case err == io.ErrClosedPipe:
		return ErrBrokenPipe
	default:
		return wrapErr(KindUnknown, "i/o error", err)
	}
}

// Copy streams from src to dst until src returns [ErrUnexpectedEOF] or an
// error occurs, returning the number of bytes copied. Grounded on
// spec.md §4.9's copy operation, implemented with a fixed intermediate
// buffer like io.Copy's internal default. The returned task's frame is
// locked across each write so a cancellation landing mid-write is absorbed
// rather than leaving a partial write; it is replayed once the write
// settles (frame.unlock), at which point the next read/write cycle is not
// started.
func Copy(ctx context.Context, l *Loop, dst Writer, src Reader) *Task[int64] {
	t := newTask[int64](l, "asyncio.Copy")
	p := NewPromise[int64]()
	t.bindFuture(p.Future())

	buf := make([]byte, 32*1024)
	var total int64

	var mu sync.Mutex
	var current interface{ Cancel() error }
	setCurrent := func(c interface{ Cancel() error }) {
		mu.Lock()
		current = c
		mu.Unlock()
	}

	t.setCancelHook(func() error {
		mu.Lock()
		c := current
		mu.Unlock()
		if c == nil {
			return nil
		}
		return c.Cancel()
	})

	var step func()
	step = func() {
		if t.fr.isCancelled() {
			p.Reject(ErrCancelled)
			return
		}
		rt := src.Read(ctx, buf)
		setCurrent(rt)
		rt.addCallback(func(n int, err error) {
			setCurrent(nil)
			if n <= 0 {
				if err != nil {
					finishCopy(p, total, err)
					return
				}
				step()
				return
			}
			total += int64(n)
			t.lockFrame()
			wt := dst.Write(ctx, buf[:n])
			setCurrent(wt)
			wt.addCallback(func(_ int, werr error) {
				setCurrent(nil)
				t.unlockFrame()
				if werr != nil {
					p.Reject(werr)
					return
				}
				if err != nil {
					finishCopy(p, total, err)
					return
				}
				if t.fr.isCancelled() {
					p.Reject(ErrCancelled)
					return
				}
				step()
			})
		})
	}
	step()

	return t
}

func finishCopy(p *Promise[int64], total int64, err error) {
	if err == ErrUnexpectedEOF || err == io.EOF {
		p.Resolve(total)
		return
	}
	p.Reject(err)
}

// CopyBidirectional streams a <-> b concurrently until both directions
// finish (or one fails), matching spec.md §4.9's bidirectional pipe/proxy
// use case.
func CopyBidirectional(ctx context.Context, l *Loop, a, b ReadWriteCloser) *Task[[2]int64] {
	t := newTask[[2]int64](l, "asyncio.CopyBidirectional")
	p := NewPromise[[2]int64]()
	t.bindFuture(p.Future())

	ab := Copy(ctx, l, b, a)
	ba := Copy(ctx, l, a, b)

	all := All(l, ab, ba)
	all.addCallback(func(totals []int64, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve([2]int64{totals[0], totals[1]})
	})

	t.setCancelHook(func() error { return all.Cancel() })
	return t
}
