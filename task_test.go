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

// Scenario 4: cancel propagates into all.
func TestAllCancelPropagatesToChildren(t *testing.T) {
	result, err := Run(func(l *Loop) *Task[[]struct{}] {
		t1 := Sleep(l, time.Hour)
		t2 := Sleep(l, time.Hour)
		all := All(l, t1, t2)

		l.Post(func() {
			_ = all.Cancel()
		}, 5*time.Millisecond)

		return Transform(all, func(v []struct{}) []struct{} { return v })
	})
	_ = result

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("got err %v, want ErrCancelled", err)
	}
}

// Scenario 2 & 3: timeout races against sleep.
func TestTimeoutElapsesBeforeTask(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[struct{}] {
		return Timeout(l, Sleep(l, 20*time.Millisecond), 10*time.Millisecond)
	})
	if !errors.Is(err, ErrElapsed) {
		t.Fatalf("got err %v, want ErrElapsed", err)
	}
}

func TestTaskWinsBeforeTimeout(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[struct{}] {
		return Timeout(l, Sleep(l, 10*time.Millisecond), 20*time.Millisecond)
	})
	if err != nil {
		t.Fatalf("got err %v, want nil", err)
	}
}

func TestAnyFailsWithAggregateWhenAllFail(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[int] {
		boom := errors.New("boom")
		t1 := From[int](l, 0, boom)
		t2 := From[int](l, 0, boom)
		return Any(l, t1, t2)
	})
	var agg *AggregateError
	if !errors.As(err, &agg) || len(agg.Errors) != 2 {
		t.Fatalf("got err %v, want AggregateError with 2 members", err)
	}
}

func TestRaceResolvesWithFirstSuccess(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		slow := Transform(Sleep(l, 20*time.Millisecond), func(struct{}) int { return 2 })
		fast := Transform(Sleep(l, 1*time.Millisecond), func(struct{}) int { return 1 })
		return Race(l, slow, fast)
	})
	if err != nil || v != 1 {
		t.Fatalf("got (%d, %v), want (1, nil)", v, err)
	}
}

func TestAndThenSequencesTasks(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		return AndThen(From(l, 1, nil), func(n int) *Task[int] {
			return From(l, n+41, nil)
		})
	})
	if err != nil || v != 42 {
		t.Fatalf("got (%d, %v), want (42, nil)", v, err)
	}
}

func TestDoneBecomesTrueExactlyOnce(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	tk := newTask[int](l, "test")
	if tk.Done() {
		t.Fatal("task reported done before completion")
	}
	tk.complete(1, nil)
	if !tk.Done() {
		t.Fatal("task did not report done after completion")
	}
	if err := tk.Cancel(); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("Cancel after completion = %v, want ErrAlreadyCompleted", err)
	}
}
