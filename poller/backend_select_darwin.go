//go:build darwin

package poller

func newNativeBackend() (Backend, error) {
	return newKqueueBackend()
}

const nativeBackendIsIndexed = true
