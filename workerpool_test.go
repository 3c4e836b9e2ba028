// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestToThreadRunsOffLoop(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		return ToThread(l, func() (int, error) {
			return 7, nil
		})
	})
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}

func TestToThreadPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(func(l *Loop) *Task[int] {
		return ToThread(l, func() (int, error) {
			return 0, boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}

func TestToThreadWithCancelObservesContext(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[int] {
		tk := ToThreadWithCancel(l, func(ctx context.Context) (int, error) {
			select {
			case <-ctx.Done():
				return 0, ErrCancelled
			case <-time.After(time.Second):
				return 1, nil
			}
		})
		l.Post(func() { _ = tk.Cancel() }, 5*time.Millisecond)
		return tk
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got %v, want ErrCancelled", err)
	}
}
