// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestListenerAcceptReturnsDialedConnection(t *testing.T) {
	raw, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()

	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	ln := NewListener(l, raw)

	go func() { _ = l.Dispatch(context.Background()) }()
	defer l.LoopExit(0)

	accept := ln.Accept()
	done := make(chan struct{})
	var server ReadWriteCloser
	var acceptErr error
	accept.addCallback(func(c ReadWriteCloser, err error) {
		server, acceptErr = c, err
		close(done)
	})

	conn, err := net.DialTimeout("tcp", raw.Addr().String(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Accept did not complete in time")
	}
	if acceptErr != nil {
		t.Fatalf("Accept failed: %v", acceptErr)
	}
	if server == nil {
		t.Fatal("Accept resolved with a nil connection")
	}
	_ = server.Close()
}

func TestListenerCancelAcceptClosesListener(t *testing.T) {
	raw, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	l, err := NewLoop()
	if err != nil {
		t.Fatal(err)
	}
	ln := NewListener(l, raw)

	go func() { _ = l.Dispatch(context.Background()) }()
	defer l.LoopExit(0)

	accept := ln.Accept()
	time.Sleep(5 * time.Millisecond)
	if err := accept.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := net.Listen("tcp", raw.Addr().String()); err != nil {
		t.Fatal("expected the address to be free once the listener was closed by cancellation")
	}
}
