package poller

import (
	"golang.org/x/sys/unix"
)

// pollBackend is Backend B: the portable adapter over poll(2), usable on any
// unix target regardless of whether epoll or kqueue is available. Unlike the
// indexed backends, poll(2) has no add/modify/remove verbs of its own — the
// whole set of watched descriptors is resubmitted on every call — so this
// backend owns a genuine growable parallel array (fds) rather than delegate
// to a Go map: the array's shape (a []unix.PollFd) is dictated directly by
// the syscall's argument type, unlike scannedTable's bookkeeping map.
//
// NewPollBackend is exported as an escape hatch: callers on any platform,
// including Linux and Darwin, may force this backend via WithScannedBackend,
// e.g. when running under a sandboxed epoll/kqueue policy.
type pollBackend struct {
	fds   []unix.PollFd
	index map[int]int // fd -> position in fds
	ready []ReadyEvent
}

// NewPollBackend constructs the portable poll(2)-based Backend.
func NewPollBackend() (Backend, error) {
	return newPollBackend(), nil
}

func newPollBackend() *pollBackend {
	return &pollBackend{
		fds:   make([]unix.PollFd, 0, 64), // append doubles it from here
		index: make(map[int]int),
		ready: make([]ReadyEvent, 0, maxEventsPerWait),
	}
}

func eventToPoll(mask Event) int16 {
	var e int16
	if mask&EventRead != 0 {
		e |= unix.POLLIN
	}
	if mask&EventWrite != 0 {
		e |= unix.POLLOUT
	}
	return e
}

func pollToReadiness(revents int16) Readiness {
	var r Readiness
	if revents&unix.POLLIN != 0 {
		r |= ReadinessRead
	}
	if revents&unix.POLLOUT != 0 {
		r |= ReadinessWrite
	}
	if revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		r |= ReadinessError
	}
	return r
}

func (b *pollBackend) Install(fd int, mask Event) error {
	if _, ok := b.index[fd]; ok {
		return b.Modify(fd, mask)
	}
	b.index[fd] = len(b.fds)
	b.fds = append(b.fds, unix.PollFd{Fd: int32(fd), Events: eventToPoll(mask)})
	return nil
}

func (b *pollBackend) Modify(fd int, mask Event) error {
	i, ok := b.index[fd]
	if !ok {
		return ErrNotFound
	}
	b.fds[i].Events = eventToPoll(mask)
	return nil
}

// Remove swap-removes fd's entry: the last element of fds is moved into the
// removed slot so the array never leaves a hole, and the moved element's
// index entry is updated to match. Order among unrelated descriptors is not
// meaningful, so this is safe.
func (b *pollBackend) Remove(fd int) error {
	i, ok := b.index[fd]
	if !ok {
		return ErrNotFound
	}
	last := len(b.fds) - 1
	if i != last {
		b.fds[i] = b.fds[last]
		b.index[int(b.fds[i].Fd)] = i
	}
	b.fds = b.fds[:last]
	delete(b.index, fd)
	return nil
}

func (b *pollBackend) Wait(timeoutMs int) ([]ReadyEvent, error) {
	n, err := unix.Poll(b.fds, timeoutMs)
	if err != nil {
		return nil, err
	}
	b.ready = b.ready[:0]
	if n == 0 {
		return b.ready, nil
	}
	for _, pfd := range b.fds {
		if pfd.Revents == 0 {
			continue
		}
		b.ready = append(b.ready, ReadyEvent{
			FD:     int(pfd.Fd),
			Events: pollToReadiness(pfd.Revents),
		})
	}
	return b.ready, nil
}

func (b *pollBackend) Close() error {
	b.fds = nil
	b.index = nil
	return nil
}
