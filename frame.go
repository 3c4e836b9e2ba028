// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// frame is one node of a task's cancellation/call tree: every [Task] owns
// exactly one frame, created with an optional parent so cancelling a
// parent task propagates to every child spawned underneath it (spec.md's
// "cancellation propagates down the call tree" requirement). Locking a
// frame (entering a non-cancellable suspension point) still marks it
// cancelled and still propagates to children, but defers invoking the
// cancel hook itself until [frame.unlock] observes the pending
// cancellation and replays it.
type frame struct {
	id     string
	name   string
	loop   *Loop
	parent *frame

	mu         sync.Mutex
	children   []*frame
	cancelled  bool
	hookFired  bool
	locked     bool
	finished   bool
	cancelHook func() error
}

func newFrame(l *Loop, name string, parent *frame) *frame {
	f := &frame{id: newTaskID(), name: name, loop: l, parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, f)
		parent.mu.Unlock()
	}
	return f
}

func (f *frame) setCancelHook(hook func() error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelHook = hook
}

// cancel marks the frame cancelled and recurses into every child frame so
// cancellation always flows down the call tree regardless of which level
// it was requested at or whether this frame happens to be locked. The
// cancel hook itself only fires while the frame is unlocked; a cancel
// arriving while locked is absorbed (reported back as [ErrLocked]) and the
// hook is replayed later by [frame.unlock].
func (f *frame) cancel() error {
	f.mu.Lock()
	if f.finished {
		f.mu.Unlock()
		return ErrAlreadyCompleted
	}
	f.cancelled = true
	locked := f.locked
	var hook func() error
	if !locked && !f.hookFired {
		hook = f.cancelHook
		f.hookFired = hook != nil
	}
	children := append([]*frame(nil), f.children...)
	f.mu.Unlock()

	var err error
	switch {
	case locked:
		err = ErrLocked
	case hook != nil:
		err = hook()
	}
	for _, c := range children {
		_ = c.cancel()
	}
	return err
}

func (f *frame) lock() {
	f.mu.Lock()
	f.locked = true
	f.mu.Unlock()
}

// unlock clears the locked flag and, if cancellation arrived while locked
// and the hook has not yet fired, invokes it now — the "next await
// observes it" deferral spec.md describes.
func (f *frame) unlock() {
	f.mu.Lock()
	f.locked = false
	var hook func() error
	if f.cancelled && !f.finished && !f.hookFired {
		hook = f.cancelHook
		f.hookFired = hook != nil
	}
	f.mu.Unlock()
	if hook != nil {
		_ = hook()
	}
}

func (f *frame) finish() {
	f.mu.Lock()
	f.finished = true
	f.mu.Unlock()
}

func (f *frame) isCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *frame) isLocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked
}

// trace returns the frame's names from root to this frame, for [Task.Trace]
// diagnostics.
func (f *frame) trace() []string {
	var names []string
	for cur := f; cur != nil; cur = cur.parent {
		names = append([]string{cur.name}, names...)
	}
	return names
}

// CallTreeNode is a snapshot of one frame in a task's call tree, returned
// by [Task.CallTree] for diagnostic/logging purposes.
type CallTreeNode struct {
	ID        string
	Name      string
	Cancelled bool
	Finished  bool
	Children  []*CallTreeNode
}

func (f *frame) snapshot() *CallTreeNode {
	f.mu.Lock()
	node := &CallTreeNode{ID: f.id, Name: f.name, Cancelled: f.cancelled, Finished: f.finished}
	children := append([]*frame(nil), f.children...)
	f.mu.Unlock()
	for _, c := range children {
		node.Children = append(node.Children, c.snapshot())
	}
	return node
}
