// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package asyncio

import (
	"errors"
	"fmt"
)

// Kind is a stable, category-tagged identifier for a runtime error.
//
// Kinds are grouped into [Category] values so callers can match on either
// the precise kind or the broader condition, per the error taxonomy in
// the task, I/O, channel, timeout, and TLS domains.
type Kind int

const (
	KindUnknown Kind = iota

	// Task errors.
	KindCancelled
	KindCancellationNotSupported
	KindLocked
	KindCancellationTooLate
	KindAlreadyCompleted
	KindWillBeDone

	// I/O errors.
	KindUnexpectedEOF
	KindBrokenPipe
	KindInvalidArgument
	KindBadFileDescriptor
	KindDeviceOrResourceBusy
	KindTimedOut
	KindNotSupported
	KindNotEnoughMemory
	KindAddressFamilyNotSupported

	// Channel errors.
	KindDisconnected
	KindFull
	KindEmpty

	// Timeout error.
	KindElapsed

	// TLS errors.
	KindTLSProtocol
	KindTLSUnexpectedEOF
)

// Category groups [Kind] values that share recovery semantics, mirroring
// the "conditions" grouping of spec error kinds.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryTask
	CategoryIO
	CategoryChannel
	CategoryTimeout
	CategoryTLS
)

var kindNames = map[Kind]string{
	KindUnknown:                  "unknown",
	KindCancelled:                "cancelled",
	KindCancellationNotSupported: "cancellation not supported",
	KindLocked:                   "locked",
	KindCancellationTooLate:      "cancellation too late",
	KindAlreadyCompleted:         "already completed",
	KindWillBeDone:               "will be done",
	KindUnexpectedEOF:            "unexpected eof",
	KindBrokenPipe:               "broken pipe",
	KindInvalidArgument:          "invalid argument",
	KindBadFileDescriptor:        "bad file descriptor",
	KindDeviceOrResourceBusy:     "device or resource busy",
	KindTimedOut:                 "timed out",
	KindNotSupported:             "not supported",
	KindNotEnoughMemory:          "not enough memory",
	KindAddressFamilyNotSupported: "address family not supported",
	KindDisconnected:             "disconnected",
	KindFull:                     "full",
	KindEmpty:                    "empty",
	KindElapsed:                  "elapsed",
	KindTLSProtocol:              "tls protocol error",
	KindTLSUnexpectedEOF:         "tls unexpected eof",
}

var kindCategories = map[Kind]Category{
	KindCancelled:                CategoryTask,
	KindCancellationNotSupported: CategoryTask,
	KindLocked:                   CategoryTask,
	KindCancellationTooLate:      CategoryTask,
	KindAlreadyCompleted:         CategoryTask,
	KindWillBeDone:               CategoryTask,

	KindUnexpectedEOF:             CategoryIO,
	KindBrokenPipe:                CategoryIO,
	KindInvalidArgument:           CategoryIO,
	KindBadFileDescriptor:         CategoryIO,
	KindDeviceOrResourceBusy:      CategoryIO,
	KindTimedOut:                  CategoryIO,
	KindNotSupported:              CategoryIO,
	KindNotEnoughMemory:           CategoryIO,
	KindAddressFamilyNotSupported: CategoryIO,

	KindDisconnected: CategoryChannel,
	KindFull:         CategoryChannel,
	KindEmpty:        CategoryChannel,

	KindElapsed: CategoryTimeout,

	KindTLSProtocol:      CategoryTLS,
	KindTLSUnexpectedEOF: CategoryTLS,
}

// String returns the human-readable name of k.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category returns the [Category] k belongs to.
func (k Kind) Category() Category {
	if c, ok := kindCategories[k]; ok {
		return c
	}
	return CategoryUnknown
}

// Error is the runtime's single error type: a [Kind], an optional message,
// an optional wrapped cause, and (for channel send failures) the value the
// caller attempted to hand over, returned so it is never silently dropped.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// Value carries a rejected channel send's payload back to the caller;
	// nil for every other kind.
	Value any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return fmt.Sprintf("asyncio: %s: %v", msg, e.Cause)
	}
	return "asyncio: " + msg
}

// Unwrap returns the wrapped cause, for [errors.Is]/[errors.As].
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same [Kind].
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Sentinel errors for the most frequently matched kinds. Each is an *Error
// so that errors.Is(err, ErrCancelled) and a switch over Kind both work.
var (
	ErrCancelled                = newErr(KindCancelled, "operation cancelled")
	ErrCancellationNotSupported = newErr(KindCancellationNotSupported, "cancellation not supported at current suspension point")
	ErrLocked                   = newErr(KindLocked, "frame is locked")
	ErrCancellationTooLate      = newErr(KindCancellationTooLate, "cancellation arrived after completion")
	ErrAlreadyCompleted         = newErr(KindAlreadyCompleted, "task already completed")
	ErrWillBeDone               = newErr(KindWillBeDone, "task will be done; cancel has no further effect")

	ErrUnexpectedEOF     = newErr(KindUnexpectedEOF, "unexpected end of stream")
	ErrBrokenPipe        = newErr(KindBrokenPipe, "broken pipe")
	ErrBadFileDescriptor = newErr(KindBadFileDescriptor, "use of closed descriptor")
	ErrTimedOut          = newErr(KindTimedOut, "i/o timed out")

	ErrDisconnected = newErr(KindDisconnected, "channel disconnected")
	ErrFull         = newErr(KindFull, "channel full")
	ErrEmpty        = newErr(KindEmpty, "channel empty")

	ErrElapsed = newErr(KindElapsed, "deadline elapsed")
)

// AggregateError collects the errors produced by every failed member of an
// [Any] combinator, in completion order.
//
// Grounded on the same multi-error-unwrap pattern as the teacher's
// AggregateError (eventloop/errors.go), extended with Unwrap() []error so
// [errors.Is]/[errors.As] can search every member.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "asyncio: aggregate error (no members)"
	}
	return fmt.Sprintf("asyncio: %d task(s) failed, first: %v", len(e.Errors), e.Errors[0])
}

// Unwrap returns every member error for multi-error unwrapping (Go 1.20+).
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
