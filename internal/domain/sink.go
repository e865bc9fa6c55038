package domain

import "context"

// SinkKind tags the capability behind a Sink.
type SinkKind int

const (
	FilesystemSink SinkKind = iota
	ObjectStoreSink
)

func (k SinkKind) String() string {
	if k == ObjectStoreSink {
		return "object-store"
	}
	return "filesystem"
}

// Sink persists derivative bytes together with a checksum record.
type Sink interface {
	Kind() SinkKind

	// Checksum returns the checksum stored for key. found is false when the
	// derivative or its checksum record does not exist.
	Checksum(ctx context.Context, key string) (sum string, found bool, err error)

	// Write stores data under key, creating any parent structure.
	Write(ctx context.Context, key string, data []byte, contentType string) error

	// Tag records sum as the checksum of key, replacing any previous record.
	Tag(ctx context.Context, key, sum string) error

	// Fetch reads a stored derivative back. Missing keys return ErrNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Clone returns a handle for exclusive use by one task.
	Clone() Sink
}
