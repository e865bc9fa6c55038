package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"

	"github.com/lewtec/imgvariant/internal/domain"
)

// Filesystem stores derivatives as files and their checksum in a
// ".<id>.checksum" sidecar next to them.
type Filesystem struct {
	fs billy.Filesystem
}

func NewFilesystem(fs billy.Filesystem) *Filesystem {
	return &Filesystem{fs: fs}
}

// OpenFilesystem roots a filesystem sink at dir on the local disk.
func OpenFilesystem(dir string) *Filesystem {
	return NewFilesystem(osfs.New(dir))
}

func (s *Filesystem) Kind() domain.SinkKind { return domain.FilesystemSink }

func (s *Filesystem) Checksum(_ context.Context, key string) (string, bool, error) {
	if _, err := s.fs.Stat(key); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: while checking %s: %v", domain.ErrTransport, key, err)
	}
	data, err := util.ReadFile(s.fs, domain.ChecksumKey(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: while reading checksum of %s: %v", domain.ErrTransport, key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func (s *Filesystem) Write(_ context.Context, key string, data []byte, _ string) error {
	return s.writeAtomic(key, data)
}

func (s *Filesystem) Tag(_ context.Context, key, sum string) error {
	return s.writeAtomic(domain.ChecksumKey(key), []byte(sum))
}

func (s *Filesystem) Fetch(_ context.Context, key string) ([]byte, error) {
	data, err := util.ReadFile(s.fs, key)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: while reading %s: %v", domain.ErrTransport, key, err)
	}
	return data, nil
}

func (s *Filesystem) Clone() domain.Sink {
	return &Filesystem{fs: s.fs}
}

// writeAtomic writes to a temporary sibling and renames it over key, so
// readers never observe a partial file.
func (s *Filesystem) writeAtomic(key string, data []byte) error {
	dir := path.Dir(key)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: while creating %s: %v", domain.ErrTransport, dir, err)
	}
	tempFile := path.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New()))
	if err := util.WriteFile(s.fs, tempFile, data, 0o644); err != nil {
		s.fs.Remove(tempFile)
		return fmt.Errorf("%w: while writing %s: %v", domain.ErrTransport, key, err)
	}
	if err := s.fs.Rename(tempFile, key); err != nil {
		s.fs.Remove(tempFile)
		return fmt.Errorf("%w: while moving %s into place: %v", domain.ErrTransport, key, err)
	}
	return nil
}
