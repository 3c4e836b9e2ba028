// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"sync"
	"testing"
)

func TestPromiseResultThenCallback(t *testing.T) {
	p := NewPromise[int]()
	p.Resolve(42)

	var got int
	var gotErr error
	p.Future().OnComplete(func(v int, err error) {
		got, gotErr = v, err
	})
	if gotErr != nil || got != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", got, gotErr)
	}
}

func TestPromiseCallbackThenResult(t *testing.T) {
	p := NewPromise[string]()
	var got string
	p.Future().OnComplete(func(v string, err error) {
		got = v
	})
	p.Resolve("hello")
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestPromiseResolvesAtMostOnce(t *testing.T) {
	p := NewPromise[int]()
	var calls int
	p.Future().OnComplete(func(v int, err error) {
		calls++
	})
	p.Resolve(1)
	p.Resolve(2)
	p.Reject(ErrCancelled)
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
}

func TestPromiseConcurrentResolveRaces(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := NewPromise[int]()
		var wg sync.WaitGroup
		var calls int
		var mu sync.Mutex

		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Future().OnComplete(func(int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
		go func() {
			defer wg.Done()
			p.Resolve(i)
		}()
		wg.Wait()

		if calls != 1 {
			t.Fatalf("iteration %d: callback invoked %d times, want 1", i, calls)
		}
	}
}
