// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "testing"

func TestFrameCancelWhileLockedDefersHookUntilUnlock(t *testing.T) {
	f := newFrame(nil, "test", nil)

	fired := false
	f.setCancelHook(func() error {
		fired = true
		return nil
	})

	f.lock()

	if err := f.cancel(); err != ErrLocked {
		t.Fatalf("cancel while locked = %v, want ErrLocked", err)
	}
	if !f.isCancelled() {
		t.Fatal("cancel while locked should still set the cancelled flag")
	}
	if fired {
		t.Fatal("hook should not fire while the frame is locked")
	}

	f.unlock()
	if !fired {
		t.Fatal("unlock should replay the deferred cancel hook")
	}
}

func TestFrameCancelWhileLockedStillPropagatesToChildren(t *testing.T) {
	parent := newFrame(nil, "parent", nil)
	child := newFrame(nil, "child", parent)

	childFired := false
	child.setCancelHook(func() error {
		childFired = true
		return nil
	})

	parent.lock()
	_ = parent.cancel()

	if !child.isCancelled() {
		t.Fatal("cancelling a locked parent should still mark children cancelled")
	}
	if !childFired {
		t.Fatal("child (unlocked) hook should fire even though the parent is locked")
	}
}

func TestFrameCancelHookFiresOnlyOnce(t *testing.T) {
	f := newFrame(nil, "test", nil)

	calls := 0
	f.setCancelHook(func() error {
		calls++
		return nil
	})

	f.lock()
	_ = f.cancel()
	_ = f.cancel()
	f.unlock()
	_ = f.cancel()

	if calls != 1 {
		t.Fatalf("hook fired %d times, want exactly 1", calls)
	}
}
