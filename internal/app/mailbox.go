package app

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when sending to a worker that has exited.
	ErrClosed = errors.New("app: mailbox closed")
	// ErrFull is returned when a worker's mailbox has no room left.
	ErrFull = errors.New("app: mailbox full")
)

// DefaultMailboxCapacity bounds the number of queued requests per worker.
const DefaultMailboxCapacity = 256

// Sink receives requests in place of a live worker.
type Sink func(pid int32, req Request)

// Handle is the sending side of an application's mailbox. Send never
// blocks: a full or closed mailbox is reported to the caller, who logs and
// moves on.
type Handle struct {
	pid      int32
	requests chan Request
	sink     Sink

	done      chan struct{}
	closeOnce sync.Once
}

// NewHandle creates a mailbox with the given capacity for a live worker.
func NewHandle(pid int32, capacity int) *Handle {
	if capacity <= 0 {
		capacity = DefaultMailboxCapacity
	}
	return &Handle{
		pid:      pid,
		requests: make(chan Request, capacity),
		done:     make(chan struct{}),
	}
}

// NewSinkHandle creates a handle that delivers every request synchronously
// to sink. Used for replay and tests.
func NewSinkHandle(pid int32, sink Sink) *Handle {
	return &Handle{
		pid:  pid,
		sink: sink,
		done: make(chan struct{}),
	}
}

// PID returns the process this handle addresses.
func (h *Handle) PID() int32 {
	return h.pid
}

// Send enqueues req without blocking.
func (h *Handle) Send(req Request) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	if h.sink != nil {
		h.sink(h.pid, req)
		return nil
	}

	select {
	case h.requests <- req:
		return nil
	case <-h.done:
		return ErrClosed
	default:
		return ErrFull
	}
}

// Requests is the receiving side, read by the worker.
func (h *Handle) Requests() <-chan Request {
	return h.requests
}

// Done is closed once the handle is closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Close marks the mailbox closed. Later sends fail with ErrClosed. The
// request channel itself is never closed so a racing Send cannot panic.
func (h *Handle) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
