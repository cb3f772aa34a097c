package poller

// maxEventsPerWait bounds the per-call kernel event buffer, capping the
// stack/heap pressure of a single Wait call. Because the underlying
// primitive is level-triggered, any events left unconsumed resurface on the
// next call, so this bound never loses readiness information.
const maxEventsPerWait = 128

// ReadyEvent is one entry the kernel reported readiness for.
type ReadyEvent struct {
	FD     int
	Events Readiness
}

// Backend is the Kernel Pollset Adapter: a thin capability set over the OS
// readiness primitive, exposing install/modify/remove/wait uniformly across
// interchangeable back-ends (indexed epoll/kqueue, or scanned poll). The
// Poller Core never branches on which concrete Backend it holds.
type Backend interface {
	// Install registers fd for mask. Called only when the descriptor has
	// no existing kernel registration.
	Install(fd int, mask Event) error

	// Modify updates fd's existing kernel registration to mask.
	Modify(fd int, mask Event) error

	// Remove drops fd's kernel registration, if any. Implementations
	// return (or wrap) ErrNotFound when fd was not registered; Clean
	// tolerates that specifically.
	Remove(fd int) error

	// Wait blocks up to timeoutMs (0 = non-blocking probe, -1 = indefinite)
	// and returns the ready events for this call. The returned slice is
	// only valid until the next call to Wait.
	Wait(timeoutMs int) ([]ReadyEvent, error)

	// Close releases the underlying kernel handle.
	Close() error
}
