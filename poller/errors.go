package poller

import (
	"errors"
	"fmt"
)

// Standard errors. Sentinel values so callers can use errors.Is/errors.As
// through PollerError's cause chain.
var (
	// ErrNoEvents is returned by Add when the requested event mask is empty.
	ErrNoEvents = errors.New("poller: events must be a non-empty subset of {READ, WRITE}")

	// ErrFDOutOfRange is returned when fd exceeds the indexed backend's
	// preallocated table size (RLIMIT_NOFILE at Init time).
	ErrFDOutOfRange = errors.New("poller: fd out of range")

	// ErrNotFound is the tolerated-absence sentinel a Backend.Remove
	// implementation returns (or wraps) when the kernel has no matching
	// registration. Clean ignores it.
	ErrNotFound = errors.New("poller: no such registration")

	// ErrClosed is returned by operations attempted on a Poller after Close.
	ErrClosed = errors.New("poller: closed")

	// ErrMultipleWaiters is the invariant-1 violation: two coroutines
	// waiting on the same direction of the same descriptor. Programmer
	// error; Add panics with this wrapped in a *PollerError.
	ErrMultipleWaiters = errors.New("poller: multiple coroutines waiting for a single file descriptor direction")

	// ErrCleanWithWaiters is the invariant-4 precondition violation: Clean
	// called while a waiter is still attached. Programmer error; Clean
	// panics with this wrapped in a *PollerError.
	ErrCleanWithWaiters = errors.New("poller: clean called with a waiter still attached")

	// ErrKernelDesync indicates a kernel operation failed on a descriptor
	// the Wait Table believes is valid, i.e. the in-memory table and the
	// kernel-held registration set have diverged. Not recoverable;
	// reconcile and Wait panic with this wrapped in a *PollerError.
	ErrKernelDesync = errors.New("poller: wait table and kernel pollset have desynchronized")
)

// PollerError carries the operation and descriptor a poller invariant
// violation or kernel desync occurred on, alongside the sentinel it wraps.
type PollerError struct {
	Op  string
	FD  int
	Err error
}

func (e *PollerError) Error() string {
	return fmt.Sprintf("poller: %s(fd=%d): %v", e.Op, e.FD, e.Err)
}

func (e *PollerError) Unwrap() error { return e.Err }

func panicInvariant(op string, fd int, cause error) {
	panic(&PollerError{Op: op, FD: fd, Err: cause})
}
