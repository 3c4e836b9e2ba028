// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "testing"

func TestEventWaitBlocksUntilSet(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvent(l)

	w := e.Wait()
	if w.Done() {
		t.Fatal("Wait resolved before Set")
	}

	e.Set()
	if !w.Done() {
		t.Fatal("Wait did not resolve after Set")
	}
}

func TestEventWaitAfterSetResolvesImmediately(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvent(l)
	e.Set()

	w := e.Wait()
	if !w.Done() {
		t.Fatal("Wait on an already-set event should resolve immediately")
	}
}

func TestEventClearThenWaitBlocksAgain(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvent(l)
	e.Set()
	e.Clear()

	if e.IsSet() {
		t.Fatal("IsSet true after Clear")
	}
	w := e.Wait()
	if w.Done() {
		t.Fatal("Wait resolved on a cleared event")
	}
	e.Set()
	if !w.Done() {
		t.Fatal("Wait did not resolve after re-Set")
	}
}

func TestEventNotifiesAllWaitersFIFO(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	e := NewEvent(l)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		e.Wait().addCallback(func(struct{}, error) { order = append(order, i) })
	}
	e.Set()
	for i, want := range []int{0, 1, 2} {
		if order[i] != want {
			t.Fatalf("notify order = %v, want [0 1 2]", order)
		}
	}
}
