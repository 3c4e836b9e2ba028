// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"bytes"
	"context"
)

// BufReader adds line/delimiter-oriented reads and peeking on top of a
// [Reader], grounded on spec.md §4.9's buffered-read requirement (readLine,
// readUntil, peek) for protocol parsing over a raw stream.
type BufReader struct {
	loop *Loop
	src  Reader
	buf  []byte
	eof  bool
	err  error
}

// NewBufReader wraps src with an internal buffer sized to size bytes
// (at least 4096).
func NewBufReader(l *Loop, src Reader, size int) *BufReader {
	if size < 4096 {
		size = 4096
	}
	return &BufReader{loop: l, src: src, buf: make([]byte, 0, size)}
}

// fill reads more bytes from src into the internal buffer.
func (b *BufReader) fill(ctx context.Context) *Task[struct{}] {
	t := newTask[struct{}](b.loop, "asyncio.BufReader.fill")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	if b.eof || b.err != nil {
		p.Resolve(struct{}{})
		return t
	}

	chunk := make([]byte, cap(b.buf)-len(b.buf))
	if len(chunk) == 0 {
		chunk = make([]byte, 4096)
	}
	rt := b.src.Read(ctx, chunk)
	rt.addCallback(func(n int, err error) {
		if n > 0 {
			b.buf = append(b.buf, chunk[:n]...)
		}
		if err != nil {
			if err == ErrUnexpectedEOF {
				b.eof = true
			} else {
				b.err = err
			}
		}
		p.Resolve(struct{}{})
	})
	return t
}

// ReadUntil returns a task resolving with every byte before the first
// occurrence of delim; delim itself is consumed but not included in the
// result. If the stream ends first without delim appearing, the task fails
// with [ErrUnexpectedEOF] and whatever was buffered stays in the buffer.
func (b *BufReader) ReadUntil(ctx context.Context, delim byte) *Task[[]byte] {
	t := newTask[[]byte](b.loop, "asyncio.BufReader.ReadUntil")
	p := NewPromise[[]byte]()
	t.bindFuture(p.Future())

	var step func()
	step = func() {
		if idx := bytes.IndexByte(b.buf, delim); idx >= 0 {
			line := append([]byte(nil), b.buf[:idx]...)
			b.buf = b.buf[idx+1:]
			p.Resolve(line)
			return
		}
		if b.err != nil {
			p.Reject(b.err)
			return
		}
		if b.eof {
			p.Reject(ErrUnexpectedEOF)
			return
		}
		ft := b.fill(ctx)
		ft.addCallback(func(struct{}, error) { step() })
	}
	step()

	t.setCancelHook(func() error {
		p.Reject(ErrCancelled)
		return nil
	})
	return t
}

// ReadLine returns a task resolving with the next line, delimiter stripped.
func (b *BufReader) ReadLine(ctx context.Context) *Task[[]byte] {
	return Transform(b.ReadUntil(ctx, '\n'), func(line []byte) []byte {
		return bytes.TrimRight(line, "\r\n")
	})
}

// Peek returns up to n buffered bytes without consuming them, reading more
// from the source if the buffer doesn't already hold enough (or the
// stream ends first).
func (b *BufReader) Peek(ctx context.Context, n int) *Task[[]byte] {
	t := newTask[[]byte](b.loop, "asyncio.BufReader.Peek")
	p := NewPromise[[]byte]()
	t.bindFuture(p.Future())

	var step func()
	step = func() {
		if len(b.buf) >= n || b.eof || b.err != nil {
			want := n
			if want > len(b.buf) {
				want = len(b.buf)
			}
			if b.err != nil && want == 0 {
				p.Reject(b.err)
				return
			}
			p.Resolve(append([]byte(nil), b.buf[:want]...))
			return
		}
		ft := b.fill(ctx)
		ft.addCallback(func(struct{}, error) { step() })
	}
	step()
	return t
}

// Read implements [Reader], draining the internal buffer first.
func (b *BufReader) Read(ctx context.Context, p []byte) *Task[int] {
	t := newTask[int](b.loop, "asyncio.BufReader.Read")
	out := NewPromise[int]()
	t.bindFuture(out.Future())

	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		out.Resolve(n)
		return t
	}
	if b.err != nil {
		out.Reject(b.err)
		return t
	}
	if b.eof {
		out.Reject(ErrUnexpectedEOF)
		return t
	}
	rt := b.src.Read(ctx, p)
	rt.addCallback(func(n int, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(n)
	})
	return t
}

// BufWriter batches small writes into larger ones before handing them to
// the underlying [Writer].
type BufWriter struct {
	loop *Loop
	dst  Writer
	buf  []byte
	size int
}

// NewBufWriter wraps dst with a size-byte write buffer (at least 4096).
func NewBufWriter(l *Loop, dst Writer, size int) *BufWriter {
	if size < 4096 {
		size = 4096
	}
	return &BufWriter{loop: l, dst: dst, size: size}
}

// Write buffers p, flushing automatically once the buffer is full.
func (w *BufWriter) Write(ctx context.Context, p []byte) *Task[int] {
	w.buf = append(w.buf, p...)
	if len(w.buf) < w.size {
		return From(w.loop, len(p), nil)
	}
	return Transform(w.Flush(ctx), func(struct{}) int { return len(p) })
}

// Flush writes any buffered bytes to the underlying writer.
func (w *BufWriter) Flush(ctx context.Context) *Task[struct{}] {
	t := newTask[struct{}](w.loop, "asyncio.BufWriter.Flush")
	p := NewPromise[struct{}]()
	t.bindFuture(p.Future())

	if len(w.buf) == 0 {
		p.Resolve(struct{}{})
		return t
	}
	pending := w.buf
	w.buf = nil
	wt := w.dst.Write(ctx, pending)
	wt.addCallback(func(_ int, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(struct{}{})
	})
	return t
}
