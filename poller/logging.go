package poller

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the poller's diagnostic sink: reconcile and dispatch
// bookkeeping, EINTR retries and kernel failures in Wait, invariant
// violations in Add and Clean just before they panic, and fork rebuild
// steps. Rm logs nothing. It exists so a host
// process can route poller diagnostics through whatever structured logger
// it already uses, without this package importing anything host-specific
// beyond the interface itself.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any, err error)
}

// noopLogger is the default: silent, matching the reference implementation's
// behavior of only aborting the process on unrecoverable invariant
// violations, never logging routine operations.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any)       {}
func (noopLogger) Warn(string, map[string]any)        {}
func (noopLogger) Error(string, map[string]any, error) {}

// stumpyLogger adapts logiface's generic Logger, backed by the stumpy
// zero-allocation JSON writer, to this package's narrower Logger interface.
// Grounded on the teacher pack's own use of stumpy in logiface's benchmark
// and template tests (stumpy.L.New(stumpy.L.WithStumpy(...))).
type stumpyLogger struct {
	l *logiface.Logger[logiface.Event]
}

// NewStumpyLogger builds a Logger writing newline-delimited JSON to w via
// stumpy. Pass os.Stderr for the reference implementation's own default
// destination.
func NewStumpyLogger(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &stumpyLogger{
		l: stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(w))).Logger(),
	}
}

func applyFields[E logiface.Event](b *logiface.Builder[E], fields map[string]any) *logiface.Builder[E] {
	for k, v := range fields {
		b = b.Interface(k, v)
	}
	return b
}

func (s *stumpyLogger) Debug(msg string, fields map[string]any) {
	applyFields(s.l.Debug(), fields).Log(msg)
}

func (s *stumpyLogger) Warn(msg string, fields map[string]any) {
	applyFields(s.l.Warning(), fields).Log(msg)
}

func (s *stumpyLogger) Error(msg string, fields map[string]any, err error) {
	b := s.l.Err()
	if err != nil {
		b = b.Err(err)
	}
	applyFields(b, fields).Log(msg)
}
