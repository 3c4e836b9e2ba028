// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"errors"
	"testing"
)

func TestAllSettledReportsEachOutcome(t *testing.T) {
	boom := errors.New("boom")
	results, err := Run(func(l *Loop) *Task[[]Settled[int]] {
		return AllSettled(l, From(l, 1, nil), From[int](l, 0, boom), From(l, 3, nil))
	})
	if err != nil {
		t.Fatalf("AllSettled itself failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Value != 1 || results[0].Err != nil {
		t.Fatalf("results[0] = %+v", results[0])
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("results[1].Err = %v, want boom", results[1].Err)
	}
	if results[2].Value != 3 || results[2].Err != nil {
		t.Fatalf("results[2] = %+v", results[2])
	}
}

func TestAllSettledEmptyResolvesWithNil(t *testing.T) {
	results, err := Run(func(l *Loop) *Task[[]Settled[int]] {
		return AllSettled[int](l)
	})
	if err != nil || results != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", results, err)
	}
}

func TestSpawnRunsOnLoopThread(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		return Spawn(l, func() (int, error) { return 5, nil })
	})
	if err != nil || v != 5 {
		t.Fatalf("got (%d, %v), want (5, nil)", v, err)
	}
}

func TestFromWrapsAnAlreadyAvailableError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(func(l *Loop) *Task[int] {
		return From[int](l, 0, boom)
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}

func TestTransformErrorRecoversFromFailure(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		failed := From[int](l, 0, errors.New("boom"))
		return TransformError(failed, func(error) (int, error) { return 99, nil })
	})
	if err != nil || v != 99 {
		t.Fatalf("got (%d, %v), want (99, nil)", v, err)
	}
}

func TestOrElseFallsBackOnFailure(t *testing.T) {
	v, err := Run(func(l *Loop) *Task[int] {
		failed := From[int](l, 0, errors.New("boom"))
		return OrElse(failed, func(error) *Task[int] {
			return From(l, 7, nil)
		})
	})
	if err != nil || v != 7 {
		t.Fatalf("got (%d, %v), want (7, nil)", v, err)
	}
}

func TestAllEmptyResolvesWithNil(t *testing.T) {
	results, err := Run(func(l *Loop) *Task[[]int] {
		return All[int](l)
	})
	if err != nil || results != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", results, err)
	}
}

func TestRaceWithNoTasksFails(t *testing.T) {
	_, err := Run(func(l *Loop) *Task[int] {
		return Race[int](l)
	})
	if err == nil {
		t.Fatal("expected Race with no tasks to fail")
	}
}
