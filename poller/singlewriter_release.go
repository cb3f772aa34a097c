//go:build !pollerdebug

package poller

// assertLoopThread is a no-op outside the pollerdebug build; see
// singlewriter_debug.go.
func (p *Poller) assertLoopThread() {}
