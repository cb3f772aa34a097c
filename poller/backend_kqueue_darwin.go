//go:build darwin

package poller

import (
	"golang.org/x/sys/unix"
)

// kqueueBackend is the optional third Backend, grounded directly on the
// teacher's fastPoller (poller_darwin.go). The package spec excludes kqueue
// as a *required* back-end, but since the teacher corpus already carries a
// complete, idiomatic implementation, it costs nothing to keep it wired
// behind the same Backend interface as Backend A and B. Its tests are the
// darwin-only ones in backend_kqueue_darwin_test.go; the mockBackend-driven
// Poller tests do not exercise it.
//
// kqueue reports read/write readiness as two independent filters rather
// than a single mask, so Install/Modify/Remove translate an Event mask into
// up to two kevent_t entries.
type kqueueBackend struct {
	kq       int
	eventBuf [maxEventsPerWait]unix.Kevent_t
	ready    []ReadyEvent
	// mergeIdx maps a fd reported this Wait call to its index in ready, so a
	// descriptor with both an EVFILT_READ and an EVFILT_WRITE kevent pending
	// collapses to the single ReadyEvent per fd that epollBackend/pollBackend
	// always produce, rather than two separate ones.
	mergeIdx map[int]int
}

func newKqueueBackend() (*kqueueBackend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{
		kq:       kq,
		ready:    make([]ReadyEvent, 0, maxEventsPerWait),
		mergeIdx: make(map[int]int, maxEventsPerWait),
	}, nil
}

func kevents(fd int, mask Event, flags uint16) []unix.Kevent_t {
	var out []unix.Kevent_t
	if mask&EventRead != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if mask&EventWrite != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return out
}

func (b *kqueueBackend) Install(fd int, mask Event) error {
	kevs := kevents(fd, mask, unix.EV_ADD|unix.EV_ENABLE)
	if len(kevs) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, kevs, nil, nil)
	return err
}

// Modify installs kevents for directions newly present in mask and deletes
// kevents for directions no longer present, computed against every
// direction (EventRead|EventWrite) since kqueue has no notion of "currently
// installed" independent of what we last told it.
func (b *kqueueBackend) Modify(fd int, mask Event) error {
	del := kevents(fd, (EventRead|EventWrite)&^mask, unix.EV_DELETE)
	if len(del) > 0 {
		_, _ = unix.Kevent(b.kq, del, nil, nil) // best-effort: direction may already be gone
	}
	add := kevents(fd, mask, unix.EV_ADD|unix.EV_ENABLE)
	if len(add) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, add, nil, nil)
	return err
}

func (b *kqueueBackend) Remove(fd int) error {
	kevs := kevents(fd, EventRead|EventWrite, unix.EV_DELETE)
	_, err := unix.Kevent(b.kq, kevs, nil, nil)
	if err == unix.ENOENT {
		return ErrNotFound
	}
	return err
}

func (b *kqueueBackend) Wait(timeoutMs int) ([]ReadyEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}
	n, err := unix.Kevent(b.kq, nil, b.eventBuf[:], ts)
	if err != nil {
		return nil, err
	}
	b.ready = b.ready[:0]
	for k := range b.mergeIdx {
		delete(b.mergeIdx, k)
	}
	// Coalesce same-fd kevents into one ReadyEvent per fd: a descriptor
	// registered for both directions that becomes both readable and
	// writable in the same kqueue call reports as two separate kevent_t
	// entries, but Poller.dispatch expects exactly one bitmask per fd to
	// resume a dual-direction waiter correctly (the coalesced-resumption
	// invariant).
	for i := 0; i < n; i++ {
		ev := &b.eventBuf[i]
		fd := int(ev.Ident)
		var r Readiness
		switch ev.Filter {
		case unix.EVFILT_READ:
			r |= ReadinessRead
		case unix.EVFILT_WRITE:
			r |= ReadinessWrite
		}
		if ev.Flags&(unix.EV_ERROR|unix.EV_EOF) != 0 {
			r |= ReadinessError
		}
		if idx, ok := b.mergeIdx[fd]; ok {
			b.ready[idx].Events |= r
			continue
		}
		b.mergeIdx[fd] = len(b.ready)
		b.ready = append(b.ready, ReadyEvent{FD: fd, Events: r})
	}
	return b.ready, nil
}

func (b *kqueueBackend) Close() error {
	return unix.Close(b.kq)
}
