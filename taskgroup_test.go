// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"errors"
	"testing"
	"time"
)

func TestTaskGroupCancelCancelsEveryMember(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[struct{}] {
		g := NewTaskGroup()
		t1 := Sleep(l, time.Hour)
		t2 := Sleep(l, time.Hour)
		AddToGroup(g, t1)
		AddToGroup(g, t2)

		done := newTask[struct{}](l, "test")
		p := NewPromise[struct{}]()
		done.bindFuture(p.Future())

		l.Post(func() {
			_ = g.Cancel()
			if !t1.Cancelled() || !t2.Cancelled() {
				p.Reject(errors.New("not every member was cancelled"))
				return
			}
			p.Resolve(struct{}{})
		}, 5*time.Millisecond)

		return done
	})
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestTaskGroupMemberRemovesItselfOnCompletion(t *testing.T) {
	g := NewTaskGroup()
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	tk := From(l, 1, nil)
	AddToGroup(g, tk)

	if len(g.frames) != 0 {
		t.Fatalf("member still tracked after completing synchronously, len=%d", len(g.frames))
	}
}

func TestTaskGroupAddAfterCancelCancelsImmediately(t *testing.T) {
	g := NewTaskGroup()
	_ = g.Cancel()

	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	tk := Sleep(l, time.Hour)
	AddToGroup(g, tk)

	if !tk.Cancelled() {
		t.Fatal("task added to an already-cancelled group should be cancelled immediately")
	}
}
