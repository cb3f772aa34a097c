//go:build pollerdebug

package poller

import "runtime"

// assertLoopThread panics if called from any goroutine other than the one
// that first touched this Poller. Compiled in only under the pollerdebug
// build tag: the check costs a stack capture per call, which is worth
// paying in tests but not in the hot path this package otherwise keeps
// lock-free by construction. Grounded on the teacher's own
// getGoroutineID/isLoopThread pair (eventloop's loop.go), adapted from an
// atomic-stored single ID to a plain field since Poller carries no
// concurrent-attach story: New always runs before any use.
func (p *Poller) assertLoopThread() {
	id := getGoroutineID()
	if p.ownerGoroutineID == 0 {
		p.ownerGoroutineID = id
		return
	}
	if p.ownerGoroutineID != id {
		panic("poller: accessed from more than one goroutine")
	}
}

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
