package poller

// Option configures a Poller at construction. Modeled on the teacher's own
// functional-options pattern (see eventloop's loop construction), rather
// than a config struct, so New's signature stays stable as options grow.
type Option func(*config)

type config struct {
	resumer      Resumer
	logger       Logger
	forceScanned bool
	tableSize    int
}

func defaultConfig() config {
	return config{
		logger: noopLogger{},
	}
}

// WithResumer sets the Resumer notified from Wait. Required: New returns an
// error if none is supplied.
func WithResumer(r Resumer) Option {
	return func(c *config) { c.resumer = r }
}

// WithLogger routes the poller's diagnostics through l instead of
// discarding them. See NewStumpyLogger for a ready-made structured backend.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScannedBackend forces the portable poll(2)-class backend and its
// scanned Wait Table, bypassing the platform-native epoll/kqueue backend.
// Intended for environments where the native primitive is sandboxed or
// unavailable.
func WithScannedBackend() Option {
	return func(c *config) { c.forceScanned = true }
}

// WithTableSize overrides the indexed Wait Table's preallocated size,
// instead of deriving it from RLIMIT_NOFILE. Ignored when combined with
// WithScannedBackend, whose table grows on demand.
func WithTableSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.tableSize = n
		}
	}
}
