//go:build !linux && !darwin

package poller

import "golang.org/x/sys/unix"

// rawFork issues SYS_FORK directly, mirroring fork_linux.go/fork_darwin.go.
// See fork_linux.go's doc comment for why this bypasses the standard
// library. Shared across the remaining unix targets backend_select_other.go
// already serves with the portable poll(2) backend (freebsd, openbsd,
// netbsd, solaris, aix, ...), all of which expose unix.SYS_FORK.
func rawFork() (int, error) {
	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(pid), nil
}
