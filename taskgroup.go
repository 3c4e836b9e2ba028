// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import "sync"

// TaskGroup is a mutable bag of in-flight tasks awaited and cancelled as a
// unit: a member that finishes removes itself automatically, and cancelling
// the group cancels every frame it currently holds. Unlike [All]/[Any]/
// [Race], which fix their membership at construction, a TaskGroup's
// membership can grow for as long as the group stays uncancelled, grounded
// on original_source's TaskGroup::add (task.h), which re-cancels a
// newly-added task immediately if the group was already cancelled.
type TaskGroup struct {
	mu        sync.Mutex
	cancelled bool
	frames    []*frame
}

// NewTaskGroup constructs an empty, uncancelled group.
func NewTaskGroup() *TaskGroup { return &TaskGroup{} }

// Cancelled reports whether [TaskGroup.Cancel] has been called.
func (g *TaskGroup) Cancelled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelled
}

// Cancel cancels every frame currently adopted by the group and marks it
// cancelled, so any task added afterward is cancelled on arrival. Returns
// the first error encountered, if any, continuing to cancel the rest.
func (g *TaskGroup) Cancel() error {
	g.mu.Lock()
	g.cancelled = true
	frames := append([]*frame(nil), g.frames...)
	g.mu.Unlock()

	var firstErr error
	for _, fr := range frames {
		if err := fr.cancel(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AddToGroup adopts t into g: if g is already cancelled, t is cancelled
// immediately; otherwise t is tracked until it completes, at which point it
// removes itself from the group. A Go method cannot be generic, so this is
// a package-level function, matching [Run]'s resolution of the same
// language gap.
func AddToGroup[T any](g *TaskGroup, t *Task[T]) {
	g.mu.Lock()
	cancelled := g.cancelled
	fr := t.fr
	g.frames = append(g.frames, fr)
	g.mu.Unlock()

	if cancelled {
		_ = t.Cancel()
	}

	t.addCallback(func(T, error) {
		g.mu.Lock()
		for i, f := range g.frames {
			if f == fr {
				g.frames = append(g.frames[:i], g.frames[i+1:]...)
				break
			}
		}
		g.mu.Unlock()
	})
}
