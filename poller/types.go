package poller

// Event is a subscription mask over the directions a descriptor may be
// registered for with the kernel.
type Event uint8

const (
	// EventRead subscribes to readability.
	EventRead Event = 1 << iota
	// EventWrite subscribes to writability.
	EventWrite
)

func (e Event) String() string {
	switch e & (EventRead | EventWrite) {
	case EventRead:
		return "R"
	case EventWrite:
		return "W"
	case EventRead | EventWrite:
		return "RW"
	default:
		return "-"
	}
}

// Readiness is the bitmask delivered to a resumed coroutine, describing
// which directions are ready and whether the descriptor has errored.
type Readiness uint8

const (
	// ReadinessRead means the descriptor is readable.
	ReadinessRead Readiness = 1 << iota
	// ReadinessWrite means the descriptor is writable.
	ReadinessWrite
	// ReadinessError means the kernel reported an error or hangup. It is
	// delivered to both waiters of a descriptor regardless of which
	// direction they subscribed to.
	ReadinessError
)

func (r Readiness) String() string {
	s := ""
	if r&ReadinessRead != 0 {
		s += "R"
	}
	if r&ReadinessWrite != 0 {
		s += "W"
	}
	if r&ReadinessError != 0 {
		s += "E"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Handle is an opaque, non-owning reference to a coroutine. The poller never
// allocates or frees values of this type; it only stores and hands them
// back to the Resumer. Callers that need waiter identity for the coalesced
// (same coroutine on both directions) case must supply comparable values.
type Handle any

// Resumer is the poller's only upward callback into the scheduler. Resume is
// called synchronously from within Wait, on the caller's goroutine.
type Resumer interface {
	// Resume hands control back to the coroutine referenced by h, along
	// with the readiness flags the kernel reported for it.
	Resume(h Handle, r Readiness)
}

// ResumerFunc adapts a function to the Resumer interface.
type ResumerFunc func(h Handle, r Readiness)

// Resume implements Resumer.
func (f ResumerFunc) Resume(h Handle, r Readiness) { f(h, r) }
