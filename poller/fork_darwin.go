//go:build darwin

package poller

import "golang.org/x/sys/unix"

// rawFork issues SYS_FORK directly, mirroring fork_linux.go. See that file's
// doc comment for why this bypasses the standard library.
func rawFork() (int, error) {
	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(pid), nil
}
