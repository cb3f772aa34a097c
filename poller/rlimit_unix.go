//go:build unix

package poller

import "golang.org/x/sys/unix"

// defaultTableSize and maxTableSize bound the indexed table's preallocation:
// a floor so a process with a tiny RLIMIT_NOFILE (or one Getrlimit fails
// against) still gets a workable table, and a cap so a misconfigured
// unlimited soft limit doesn't turn Init into a multi-gigabyte allocation.
const (
	defaultTableSize = 1024
	maxTableSize     = 1 << 20
)

// queryFDLimit returns the process's current soft RLIMIT_NOFILE, clamped to
// [defaultTableSize, maxTableSize]. Used to size the indexed backend's Wait
// Table once, at Init, matching the reference implementation's approach of
// sizing its pollset array to the descriptor limit rather than growing it
// dynamically.
func queryFDLimit() int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return defaultTableSize
	}
	n := int(rlim.Cur)
	if n < defaultTableSize {
		return defaultTableSize
	}
	if n > maxTableSize {
		return maxTableSize
	}
	return n
}
