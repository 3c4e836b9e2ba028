//go:build linux

// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// maxFDs bounds the direct-indexed fd table, matching eventloop's
// poller_linux.go fast-path design (O(1) lookup, no map).
const maxFDs = 65536

type fdInfo struct {
	cb     func(IOEvents)
	events IOEvents
	active bool
}

// epollReactor implements reactor on Linux using epoll for fd readiness
// and an eventfd for cross-thread wakeup, grounded on eventloop's
// poller_linux.go and wakeup_linux.go.
type epollReactor struct {
	epfd   int
	wakeFd int

	mu  sync.RWMutex
	fds [maxFDs]fdInfo
}

func newReactor() (reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	r := &epollReactor{epfd: epfd, wakeFd: wakeFd}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, ev); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(wakeFd)
		return nil, err
	}
	return r, nil
}

func (r *epollReactor) registerFD(fd int, events IOEvents, cb func(IOEvents)) error {
	if fd < 0 || fd >= maxFDs {
		return ErrBadFileDescriptor
	}
	r.mu.Lock()
	if r.fds[fd].active {
		r.mu.Unlock()
		return wrapErr(KindInvalidArgument, "fd already registered", nil)
	}
	r.fds[fd] = fdInfo{cb: cb, events: events, active: true}
	r.mu.Unlock()

	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		r.mu.Lock()
		r.fds[fd] = fdInfo{}
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *epollReactor) unregisterFD(fd int) error {
	if fd < 0 || fd >= maxFDs {
		return ErrBadFileDescriptor
	}
	r.mu.Lock()
	if !r.fds[fd].active {
		r.mu.Unlock()
		return ErrBadFileDescriptor
	}
	r.fds[fd] = fdInfo{}
	r.mu.Unlock()
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (r *epollReactor) modifyFD(fd int, events IOEvents) error {
	if fd < 0 || fd >= maxFDs {
		return ErrBadFileDescriptor
	}
	r.mu.Lock()
	if !r.fds[fd].active {
		r.mu.Unlock()
		return ErrBadFileDescriptor
	}
	r.fds[fd].events = events
	r.mu.Unlock()
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (r *epollReactor) poll(timeout time.Duration) error {
	timeoutMs := int(timeout / time.Millisecond)
	if timeout > 0 && timeoutMs == 0 {
		timeoutMs = 1
	}
	if timeout < 0 {
		timeoutMs = -1
	}

	var events [128]unix.EpollEvent
	n, err := unix.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}

	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == r.wakeFd {
			r.drainWake()
			continue
		}
		r.mu.RLock()
		info := r.fds[fd]
		r.mu.RUnlock()
		if info.active && info.cb != nil {
			info.cb(epollFromEvents(events[i].Events))
		}
	}
	return nil
}

func (r *epollReactor) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(r.wakeFd, buf[:])
		if err != nil {
			return
		}
	}
}

func (r *epollReactor) wake() {
	var val [8]byte
	val[0] = 1
	_, _ = unix.Write(r.wakeFd, val[:])
}

func (r *epollReactor) close() error {
	_ = unix.Close(r.wakeFd)
	return unix.Close(r.epfd)
}

func eventsToEpoll(e IOEvents) uint32 {
	var out uint32
	if e&EventRead != 0 {
		out |= unix.EPOLLIN
	}
	if e&EventWrite != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func epollFromEvents(e uint32) IOEvents {
	var out IOEvents
	if e&unix.EPOLLIN != 0 {
		out |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		out |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		out |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		out |= EventHangup
	}
	return out
}
