package poller

// newBackendForCurrentPlatform picks the indexed backend native to the
// running OS, or the portable poll(2) backend when forceScanned is set
// (via WithScannedBackend, or unconditionally on platforms with no native
// indexed backend of their own).
func newBackendForCurrentPlatform(forceScanned bool) (Backend, error) {
	if forceScanned {
		return NewPollBackend()
	}
	return newNativeBackend()
}
