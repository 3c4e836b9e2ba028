// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "testing"

func TestConditionWaitReleasesAndReacquiresMutex(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMutex(l)
	cond := NewCondition(l, m)

	held := m.Lock()
	if !held.Done() {
		t.Fatal("Lock on a free mutex should resolve immediately")
	}

	wait := cond.Wait()
	if wait.Done() {
		t.Fatal("Wait resolved before Notify")
	}

	// Wait released the mutex to suspend, so it should be acquirable again.
	if !m.TryLock() {
		t.Fatal("expected mutex to be free while Condition.Wait is suspended")
	}
	m.Unlock()

	cond.Notify()
	if !wait.Done() {
		t.Fatal("Wait did not resolve after Notify")
	}
	if m.TryLock() {
		t.Fatal("expected mutex to be re-held by the woken waiter")
	}
}

func TestConditionNotifyAllWakesEveryWaiter(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMutex(l)
	cond := NewCondition(l, m)

	_ = m.Lock()
	w1 := cond.Wait()
	// w1's Wait released the mutex; grab it again so a second waiter also
	// has to release-and-requeue.
	l2 := m.Lock()
	if !l2.Done() {
		t.Fatal("expected second Lock to resolve immediately with the mutex free")
	}
	w2 := cond.Wait()

	cond.NotifyAll()
	if !w1.Done() {
		t.Fatal("NotifyAll did not wake the first waiter")
	}
	// w1 re-holds the mutex on resolution; w2 can only finish reacquiring
	// once w1's holder releases it.
	if w2.Done() {
		t.Fatal("second waiter resolved before the mutex was available to it")
	}
	m.Unlock()
	if !w2.Done() {
		t.Fatal("NotifyAll did not eventually wake the second waiter")
	}
}

func TestConditionCancelLosesRaceToNotify(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMutex(l)
	cond := NewCondition(l, m)

	_ = m.Lock()
	w := cond.Wait()

	// Wait released the mutex to suspend; re-acquire it so the waiter's
	// post-notify reacquire has to queue instead of resolving immediately,
	// opening the window where Notify has already claimed the waiter but
	// w itself has not yet resolved.
	holder := m.Lock()
	if !holder.Done() {
		t.Fatal("expected second Lock to resolve immediately with the mutex free")
	}

	cond.Notify()
	if w.Done() {
		t.Fatal("w should still be waiting to reacquire the mutex")
	}

	if err := w.Cancel(); err != ErrWillBeDone {
		t.Fatalf("Cancel racing a winning Notify = %v, want ErrWillBeDone", err)
	}
	if w.Done() {
		t.Fatal("w must not resolve until the mutex is actually handed back")
	}

	m.Unlock()
	if !w.Done() {
		t.Fatal("w should resolve once the mutex is available")
	}
	if _, err := w.Result(); err != nil {
		t.Fatalf("Notify should have won the race: got error %v, want success", err)
	}
}

func TestConditionNotifyWakesOnlyOneWaiter(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	m := NewMutex(l)
	cond := NewCondition(l, m)

	_ = m.Lock()
	w1 := cond.Wait()
	l2 := m.Lock()
	if !l2.Done() {
		t.Fatal("expected second Lock to resolve immediately with the mutex free")
	}
	w2 := cond.Wait()

	cond.Notify()
	if w1.Done() == w2.Done() {
		t.Fatal("Notify should wake exactly one of the two waiters")
	}
}
