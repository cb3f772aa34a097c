package poller

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Poller is the readiness poller: it owns the Wait Table, the Change List,
// and a Kernel Pollset Adapter, and drives all three from a single thread.
// Every exported method must be called from that same thread; there is no
// internal locking, by design, matching the cooperative single-threaded
// coroutine runtime this package bridges into the kernel.
type Poller struct {
	table        table
	changes      changeList
	backend      Backend
	resumer      Resumer
	logger       Logger
	forceScanned bool
	closed       bool

	// ownerGoroutineID is only read/written under the pollerdebug build tag;
	// see singlewriter_debug.go.
	ownerGoroutineID uint64
}

// New constructs a Poller. WithResumer is required; every other Option has
// a workable default (native backend, RLIMIT_NOFILE-derived table size,
// discarded diagnostics).
func New(opts ...Option) (*Poller, error) {
	c := defaultConfig()
	for _, o := range opts {
		o(&c)
	}
	if c.resumer == nil {
		return nil, errors.New("poller: WithResumer is required")
	}

	backend, err := newBackendForCurrentPlatform(c.forceScanned)
	if err != nil {
		return nil, fmt.Errorf("poller: init backend: %w", err)
	}

	var t table
	if c.forceScanned || !nativeBackendIsIndexed {
		t = newScannedTable()
	} else {
		size := c.tableSize
		if size <= 0 {
			size = queryFDLimit()
		}
		t = newIndexedTable(size)
	}

	return &Poller{
		table:        t,
		changes:      newChangeList(),
		backend:      backend,
		resumer:      c.resumer,
		logger:       c.logger,
		forceScanned: c.forceScanned,
	}, nil
}

// Add registers h as the waiter for the directions set in ev on fd. At most
// one waiter may be registered per direction (invariant 1); registering a
// second waiter for a direction that already has one is a programmer error
// and panics.
//
// Add only updates in-memory state; the kernel registration is not
// installed or modified until the next Wait call reconciles the change
// list. This lets a coroutine that both reads and writes the same
// descriptor within one scheduling turn collapse to a single kernel call.
func (p *Poller) Add(fd int, ev Event, h Handle) error {
	p.assertLoopThread()
	if p.closed {
		return ErrClosed
	}
	if ev&(EventRead|EventWrite) == 0 {
		return ErrNoEvents
	}
	s, err := p.table.slot(fd)
	if err != nil {
		return err
	}
	// Both directions are validated before either is mutated: the panic
	// below is recoverable (see errors.go), and a caller that recovers must
	// not be left with a half-applied Add — a waiter set on one direction
	// but never enqueued onto the change list would be silently orphaned,
	// never reconciled into the kernel subscription and never resumed.
	if ev&EventRead != 0 && s.inWaiter != nil {
		p.logger.Error("multiple coroutines waiting on the same direction", map[string]any{"fd": fd}, ErrMultipleWaiters)
		panicInvariant("Add", fd, ErrMultipleWaiters)
	}
	if ev&EventWrite != 0 && s.outWaiter != nil {
		p.logger.Error("multiple coroutines waiting on the same direction", map[string]any{"fd": fd}, ErrMultipleWaiters)
		panicInvariant("Add", fd, ErrMultipleWaiters)
	}
	if ev&EventRead != 0 {
		s.inWaiter = h
	}
	if ev&EventWrite != 0 {
		s.outWaiter = h
	}
	p.changes.enqueue(fd, s)
	return nil
}

// Rm cancels the waiter(s) for the directions set in ev on fd. Directions
// with no registered waiter are silently ignored, matching Add's
// per-direction independence. Rm never touches the kernel directly; the
// resulting mask shrink is folded into the same reconcile pass as any other
// pending change.
func (p *Poller) Rm(fd int, ev Event) error {
	p.assertLoopThread()
	if p.closed {
		return ErrClosed
	}
	s := p.table.lookup(fd)
	if s == nil {
		return nil
	}
	if ev&EventRead != 0 {
		s.inWaiter = nil
	}
	if ev&EventWrite != 0 {
		s.outWaiter = nil
	}
	p.changes.enqueue(fd, s)
	return nil
}

// Clean fully forgets fd: it drops any kernel registration and releases the
// Wait Table slot, in preparation for fd's reuse by a future open/accept.
// Calling Clean while a waiter is still attached is invariant 4's
// precondition violation and panics.
//
// Clean unconditionally attempts to remove fd from the kernel pollset, even
// when the in-memory slot believes nothing is installed: a slot's installed
// mask can lag a kernel-side registration left behind by a crashed or
// desynchronized caller, and leaving that stale entry behind risks a
// spurious readiness delivery once fd's number is reused. Backend.Remove's
// ErrNotFound is expected and ignored in the common case.
func (p *Poller) Clean(fd int) error {
	p.assertLoopThread()
	if p.closed {
		return ErrClosed
	}
	s := p.table.lookup(fd)
	if s == nil {
		if err := p.backend.Remove(fd); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
	if s.inWaiter != nil || s.outWaiter != nil {
		p.logger.Error("clean called with a waiter still attached", map[string]any{"fd": fd}, ErrCleanWithWaiters)
		panicInvariant("Clean", fd, ErrCleanWithWaiters)
	}
	if s.onChangeList() {
		p.changes.unlink(p.table, fd, s)
	}
	if err := p.backend.Remove(fd); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	s.installed = 0
	p.table.free(fd)
	return nil
}

// Wait blocks for up to timeoutMs milliseconds (0 for a non-blocking probe,
// negative for indefinite), reconciling every pending change against the
// kernel, then delivering readiness to waiters via the configured Resumer.
// Resume is called synchronously, on the caller's goroutine, once per
// waiter woken on each reported descriptor; a handle waiting on both
// directions of one descriptor is resumed once for that descriptor.
//
// It returns the number of Resume calls made: 0 on a plain timeout or when
// no reported event had a matching waiter, a positive count otherwise, matching spec.md §4.1's "return 1 if any event
// was dispatched, else 0" generalized to the actual resumption count.
func (p *Poller) Wait(timeoutMs int) (int, error) {
	p.assertLoopThread()
	if p.closed {
		return 0, ErrClosed
	}
	p.reconcile()

	// EINTR is retried for the remainder of the original timeout, per
	// spec.md §4.1 step 2 ("Retry on EINTR") and §7.2: a signal delivered
	// mid-wait must not surface as a spurious empty return with time still
	// left on the clock.
	var deadline time.Time
	haveDeadline := timeoutMs > 0
	if haveDeadline {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	remaining := timeoutMs

	var events []ReadyEvent
	for {
		var err error
		events, err = p.backend.Wait(remaining)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EINTR) {
			p.logger.Error("kernel wait failed", nil, err)
			panicInvariant("Wait", -1, fmt.Errorf("%w: %v", ErrKernelDesync, err))
		}
		p.logger.Debug("backend wait interrupted, retrying", map[string]any{"timeoutMs": remaining})
		if haveDeadline {
			remaining = int(time.Until(deadline) / time.Millisecond)
			if remaining <= 0 {
				return 0, nil
			}
		}
	}

	resumed := 0
	for _, re := range events {
		resumed += p.dispatch(re.FD, re.Events)
	}
	return resumed, nil
}

// reconcile drains the change list, bringing the kernel pollset in line
// with each visited slot's desired mask.
func (p *Poller) reconcile() {
	p.changes.drain(p.table, func(fd int, s *WaitSlot) {
		desired := s.desired()
		if desired != s.installed {
			var err error
			switch {
			case desired == 0:
				err = p.backend.Remove(fd)
				if errors.Is(err, ErrNotFound) {
					err = nil
				}
			case s.installed == 0:
				err = p.backend.Install(fd, desired)
			default:
				err = p.backend.Modify(fd, desired)
			}
			if err != nil {
				p.logger.Error("kernel reconcile failed", map[string]any{"fd": fd, "desired": desired.String()}, err)
				panicInvariant("reconcile", fd, fmt.Errorf("%w: %v", ErrKernelDesync, err))
			}
			p.logger.Debug("reconciled descriptor", map[string]any{"fd": fd, "installed": desired.String()})
			s.installed = desired
		}
		if s.idle() {
			p.table.free(fd)
		}
	})
}

// readinessForDirection projects the kernel-reported readiness r onto a
// single direction: the direction's own bit, plus the error bit, which is
// mirrored onto both directions (error fan-out).
func readinessForDirection(r Readiness, dir Event) Readiness {
	var out Readiness
	switch dir {
	case EventRead:
		out = r & ReadinessRead
	case EventWrite:
		out = r & ReadinessWrite
	}
	if r&ReadinessError != 0 {
		out |= ReadinessError
	}
	return out
}

// dispatch resolves one kernel-reported ReadyEvent against the Wait Table
// and resumes the appropriate waiter(s).
//
// A descriptor reported by the kernel but absent from the Wait Table is a
// benign race (e.g. it was Cleaned between Wait calls after the kernel had
// already queued the event) and is ignored rather than treated as a
// desync, since level-triggering guarantees nothing is lost by dropping it
// here: a still-interested waiter would not have been removed from the
// table in the first place.
func (p *Poller) dispatch(fd int, r Readiness) int {
	s := p.table.lookup(fd)
	if s == nil {
		p.logger.Debug("dropped stale readiness event", map[string]any{"fd": fd, "readiness": r.String()})
		return 0
	}

	resumed := 0

	// ERR/HUP folds into both directions' flags (error fan-out), rather than
	// being handled as a separate branch: a coroutine occupying both
	// waiter fields must still be resumed exactly once even when the
	// event is an error, not a real readiness bit.
	inFlags := readinessForDirection(r, EventRead)
	outFlags := readinessForDirection(r, EventWrite)

	if s.inWaiter != nil && s.outWaiter != nil && s.inWaiter == s.outWaiter {
		// Coalesced resumption: one coroutine waiting on both directions
		// is woken exactly once, whenever the kernel reports anything for
		// either direction.
		if combined := inFlags | outFlags; combined != 0 {
			h := s.inWaiter
			s.inWaiter, s.outWaiter = nil, nil
			p.logger.Debug("resuming coalesced waiter", map[string]any{"fd": fd, "readiness": combined.String()})
			p.resumer.Resume(h, combined)
			resumed++
		}
	} else {
		// Split resumption: distinct waiters per direction are each woken
		// independently, only when the kernel reported something for
		// their own direction.
		if s.inWaiter != nil && inFlags != 0 {
			h := s.inWaiter
			s.inWaiter = nil
			p.logger.Debug("resuming read waiter", map[string]any{"fd": fd, "readiness": inFlags.String()})
			p.resumer.Resume(h, inFlags)
			resumed++
		}
		if s.outWaiter != nil && outFlags != 0 {
			h := s.outWaiter
			s.outWaiter = nil
			p.logger.Debug("resuming write waiter", map[string]any{"fd": fd, "readiness": outFlags.String()})
			p.resumer.Resume(h, outFlags)
			resumed++
		}
	}

	if r&ReadinessError != 0 && resumed == 0 {
		p.logger.Warn("error readiness reported with no waiter attached", map[string]any{"fd": fd})
	}

	if s.desired() != s.installed {
		p.changes.enqueue(fd, s)
	} else if s.idle() {
		p.table.free(fd)
	}
	return resumed
}

// Close releases the underlying kernel handle. It does not, and cannot,
// notify any still-registered waiters; callers must Clean every descriptor
// they care about before calling Close.
func (p *Poller) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.backend.Close()
}
