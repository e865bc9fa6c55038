package domain

import "errors"

// Error kinds. Wrap them with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	// ErrSourceUnreadable covers missing, undecodable and zero sized sources.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrUnsupportedFormat means the source decoded but has no output format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrTransport is a sink read or write failure.
	ErrTransport = errors.New("transport error")
	// ErrConfiguration aborts a run before any work starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrJoinFailure means a task died instead of returning.
	ErrJoinFailure = errors.New("task join failure")
	// ErrNotFound is returned by sinks for keys they do not hold.
	ErrNotFound = errors.New("not found")
)
