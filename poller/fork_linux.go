//go:build linux

package poller

import "golang.org/x/sys/unix"

// rawFork issues SYS_FORK directly rather than os/exec or syscall.ForkExec:
// this package needs a bare fork with no exec, to duplicate a live
// coroutine-runtime process image (matching the reference implementation's
// libc fork() call), which the standard library does not expose.
func rawFork() (int, error) {
	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(pid), nil
}
