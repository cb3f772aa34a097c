//go:build linux

package poller

func newNativeBackend() (Backend, error) {
	return newEpollBackend()
}

// nativeBackendIsIndexed is true on platforms whose native backend supports
// direct fd-indexed installation (epoll, kqueue), selecting the indexed
// Wait Table; false selects the scanned (map-backed) table to match a
// poll(2)-class backend's O(n) nature.
const nativeBackendIsIndexed = true
