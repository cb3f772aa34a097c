package poller

// table is the Wait Table abstraction. The Poller Core drives it entirely
// through this interface, so the indexed (RLIMIT_NOFILE-sized array) and
// scanned (grow-on-demand) backends are interchangeable without touching
// core.go, changelist.go, or dispatch logic.
type table interface {
	// slot returns the WaitSlot for fd, creating it if necessary. It
	// returns ErrFDOutOfRange if fd cannot be tracked by this table.
	slot(fd int) (*WaitSlot, error)

	// lookup returns the WaitSlot for fd without creating one, or nil if
	// fd is not currently tracked.
	lookup(fd int) *WaitSlot

	// free releases fd's slot if it is idle. Indexed tables never forget a
	// slot once allocated (the array is sized once, at Init); scanned
	// tables reclaim idle entries.
	free(fd int)

	// forEachInstalled visits every fd with a non-empty installed mask, in
	// the manner needed by the fork adapter to rebuild a fresh pollset.
	forEachInstalled(fn func(fd int, mask Event))
}
