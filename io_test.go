// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"testing"
)

// manualWriter is a Writer whose Write calls are handed to writeFn, letting
// a test hold a write pending to observe Copy's behavior while its frame is
// locked across it.
type manualWriter struct {
	writeFn func(p []byte) *Task[int]
}

func (w *manualWriter) Write(ctx context.Context, p []byte) *Task[int] { return w.writeFn(p) }

func TestCopyLocksFrameAcrossWriteSoCancelDefersUntilWriteSettles(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	src := &chunkReader{loop: l, chunks: [][]byte{[]byte("hello")}}

	writeP := NewPromise[int]()
	writeCalled := false
	dst := &manualWriter{writeFn: func(p []byte) *Task[int] {
		writeCalled = true
		wt := newTask[int](l, "test.manualWrite")
		wt.bindFuture(writeP.Future())
		return wt
	}}

	cp := Copy(context.Background(), l, dst, src)

	if !writeCalled {
		t.Fatal("expected Write to have been called")
	}
	if cp.Done() {
		t.Fatal("Copy should still be waiting on the in-flight write")
	}
	if !cp.Locked() {
		t.Fatal("Copy's frame should be locked across the write")
	}

	if err := cp.Cancel(); err != ErrLocked {
		t.Fatalf("Cancel while locked = %v, want ErrLocked", err)
	}
	if cp.Done() {
		t.Fatal("Copy should not finish until the locked write settles")
	}
	if !cp.Cancelled() {
		t.Fatal("frame should record the cancellation even while locked")
	}

	// Settle the write: Copy should now observe the deferred cancellation
	// rather than starting another read/write cycle.
	writeP.Resolve(5)

	if !cp.Done() {
		t.Fatal("Copy should finish once the locked write settles")
	}
	if _, err := cp.Result(); err != ErrCancelled {
		t.Fatalf("Result error = %v, want ErrCancelled", err)
	}
}

func TestCopyRunsToEOFWhenNotCancelled(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	src := &chunkReader{loop: l, chunks: [][]byte{[]byte("hello "), []byte("world")}}
	var written []byte
	dst := &manualWriter{writeFn: func(p []byte) *Task[int] {
		written = append(written, p...)
		return From(l, len(p), nil)
	}}

	cp := Copy(context.Background(), l, dst, src)
	if !cp.Done() {
		t.Fatal("Copy over synchronously-resolving reader/writer should finish synchronously")
	}
	n, err := cp.Result()
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if want := int64(len("hello world")); n != want {
		t.Fatalf("n = %d, want %d", n, want)
	}
	if string(written) != "hello world" {
		t.Fatalf("written = %q", written)
	}
}
