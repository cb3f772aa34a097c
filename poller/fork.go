package poller

// AfterFork rebuilds the child's kernel pollset from the Wait Table alone,
// after a raw fork leaves the child holding a copy of the parent's
// descriptor table, including a backend handle the child must not keep
// using: an inherited epoll fd still refers to the parent's epoll instance,
// so changes made through it would reach the parent, and a kqueue is not
// inherited by the child at all.
//
// AfterFork walks every slot the table currently considers installed and
// re-Installs it, at its pre-fork installed mask, against a freshly created
// backend handle, then adopts that handle. It deliberately leaves the change
// list untouched: a descriptor with an Add or Rm still pending at fork time
// (desired != installed) has its stale installed mask re-registered here
// exactly as before, and its change list entry survives to be reconciled
// normally the next time Wait runs, bringing it to its actual desired mask.
// Clearing the change list here would strand that fd at its pre-fork mask
// forever, since forEachInstalled only knows about installed, not desired.
func (p *Poller) AfterFork() error {
	fresh, err := newBackendForCurrentPlatform(p.forceScanned)
	if err != nil {
		p.logger.Error("fork: failed to create backend", nil, err)
		return err
	}
	_ = p.backend.Close() // parent's kernel handle; harmless if already invalid post-fork
	p.backend = fresh
	var installErr error
	p.table.forEachInstalled(func(fd int, mask Event) {
		if installErr != nil {
			return
		}
		if err := p.backend.Install(fd, mask); err != nil {
			installErr = err
			return
		}
		p.logger.Debug("fork: reinstalled descriptor", map[string]any{"fd": fd, "mask": mask.String()})
	})
	if installErr != nil {
		p.logger.Error("fork: failed to reinstall descriptor", nil, installErr)
	}
	return installErr
}

// Fork wraps the raw fork(2) syscall for the caller's convenience, returning
// (0, nil) in the child and (childPID, nil) in the parent. It is only valid
// to call in a process using this package's single-threaded coroutine
// runtime: raw fork does not duplicate other OS threads' state, so a
// multi-threaded caller (including a caller with its own goroutines actively
// running) risks the child observing another thread's lock held forever.
// The caller is responsible for invoking (*Poller).AfterFork in the child
// before resuming any I/O.
func Fork() (pid int, err error) {
	return rawFork()
}
