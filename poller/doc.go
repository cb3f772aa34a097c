// Package poller bridges an OS-level, level-triggered readiness primitive
// (epoll on Linux, kqueue on Darwin, poll(2) elsewhere) to a user-space
// cooperative concurrency runtime.
//
// A coroutine that wants to wait for a file descriptor to become readable or
// writable calls Poller.Add and suspends. When the kernel reports readiness,
// Poller.Wait resumes exactly the coroutines waiting on that descriptor,
// through the Resumer supplied at construction, with flags indicating which
// directions are ready or have errored.
//
// The scheduler that owns coroutine stacks, context switching, the ready
// queue, and timers is not part of this package; it is reached only through
// the Resumer interface and the Handle type, both defined in types.go.
package poller
