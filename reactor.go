// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package asyncio's reactor abstraction: the OS-level event demultiplexer
// the [Loop] wraps into Post/Dispatch. Grounded on eventloop's
// poller_linux.go/wakeup_linux.go (epoll + eventfd), collapsed into a single
// per-platform implementation behind the reactor interface so Loop doesn't
// need platform build tags of its own.
package asyncio

import "time"

// IOEvents is a bitmask of the I/O readiness conditions a registered file
// descriptor can report.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// reactor is the external collaborator spec.md §6 calls "Reactor":
// wakeup-from-any-thread, a timed poll, and fd/handle readiness
// notification. [Loop] is the sole owner of a reactor instance.
type reactor interface {
	// poll blocks for up to timeout waiting for a wakeup or registered fd
	// readiness, dispatching any ready fd callbacks before returning.
	poll(timeout time.Duration) error
	// wake interrupts a concurrent or future poll; safe from any goroutine.
	wake()
	// registerFD/unregisterFD/modifyFD manage raw fd readiness
	// notification for callers that integrate directly with the reactor
	// (e.g. a custom file-I/O backend); asyncio's own [Listener] and
	// TLS engine are built on net.Conn and do not use this path, per
	// spec.md §1's exclusion of raw socket binding/listening code.
	registerFD(fd int, events IOEvents, cb func(IOEvents)) error
	unregisterFD(fd int) error
	modifyFD(fd int, events IOEvents) error
	close() error
}
