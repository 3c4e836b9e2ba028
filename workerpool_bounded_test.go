// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var inFlight, maxSeen atomic.Int32
	const jobs = 6
	results := make(chan workResult, jobs)

	for i := 0; i < jobs; i++ {
		resultCh := make(chan workResult, 1)
		go p.submit(context.Background(), func(ctx context.Context) (any, error) {
			n := inFlight.Add(1)
			for {
				cur := maxSeen.Load()
				if n <= cur || maxSeen.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return nil, nil
		}, resultCh)
		go func() { results <- <-resultCh }()
	}

	for i := 0; i < jobs; i++ {
		<-results
	}
	if got := maxSeen.Load(); got > 2 {
		t.Fatalf("observed %d concurrent jobs, want at most 2", got)
	}
}

func TestWorkerPoolRejectsAfterClose(t *testing.T) {
	p := NewWorkerPool(0)
	p.Close()

	resultCh := make(chan workResult, 1)
	p.submit(context.Background(), func(context.Context) (any, error) {
		return nil, nil
	}, resultCh)

	res := <-resultCh
	if res.err == nil {
		t.Fatal("expected submit on a closed pool to report an error")
	}
}
