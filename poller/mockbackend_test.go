package poller

import "testing"

// mockBackend is an in-memory stand-in for a Kernel Pollset Adapter, letting
// the Poller Core's reconcile/dispatch algorithm be exercised without real
// kernel access. Readiness is injected directly via inject, and Wait simply
// drains whatever has been injected since the last call.
type mockBackend struct {
	installed map[int]Event
	installs  []int
	modifies  []int
	removes   []int
	pending   []ReadyEvent
	closed    bool

	installErr error
	modifyErr  error
	removeErr  error
	waitErr    error
}

func newMockBackend() *mockBackend {
	return &mockBackend{installed: make(map[int]Event)}
}

func (m *mockBackend) Install(fd int, mask Event) error {
	if m.installErr != nil {
		return m.installErr
	}
	m.installed[fd] = mask
	m.installs = append(m.installs, fd)
	return nil
}

func (m *mockBackend) Modify(fd int, mask Event) error {
	if m.modifyErr != nil {
		return m.modifyErr
	}
	if _, ok := m.installed[fd]; !ok {
		return ErrNotFound
	}
	m.installed[fd] = mask
	m.modifies = append(m.modifies, fd)
	return nil
}

func (m *mockBackend) Remove(fd int) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	if _, ok := m.installed[fd]; !ok {
		return ErrNotFound
	}
	delete(m.installed, fd)
	m.removes = append(m.removes, fd)
	return nil
}

func (m *mockBackend) Wait(timeoutMs int) ([]ReadyEvent, error) {
	if m.waitErr != nil {
		return nil, m.waitErr
	}
	out := m.pending
	m.pending = nil
	return out, nil
}

func (m *mockBackend) Close() error {
	m.closed = true
	return nil
}

// inject queues a readiness event to be returned by the next Wait call.
func (m *mockBackend) inject(fd int, r Readiness) {
	m.pending = append(m.pending, ReadyEvent{FD: fd, Events: r})
}

// recordingResumer captures every Resume call in order, for assertion.
type recordingResumer struct {
	calls []resumeCall
}

type resumeCall struct {
	handle    Handle
	readiness Readiness
}

func (r *recordingResumer) Resume(h Handle, readiness Readiness) {
	r.calls = append(r.calls, resumeCall{handle: h, readiness: readiness})
}

// newTestPoller builds a Poller wired to a mockBackend and recordingResumer,
// bypassing New's platform backend selection entirely.
func newTestPoller() (*Poller, *mockBackend, *recordingResumer) {
	backend := newMockBackend()
	resumer := &recordingResumer{}
	p := &Poller{
		table:   newScannedTable(),
		changes: newChangeList(),
		backend: backend,
		resumer: resumer,
		logger:  noopLogger{},
	}
	return p, backend, resumer
}

// mustWait calls Wait and requires it to succeed, returning just the
// resumption count for tests that don't care about the error path.
func mustWait(t *testing.T, p *Poller, timeoutMs int) int {
	t.Helper()
	n, err := p.Wait(timeoutMs)
	if err != nil {
		t.Fatalf("Wait(%d): %v", timeoutMs, err)
	}
	return n
}
