package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/lewtec/imgvariant/internal/domain"
)

// ObjectStore stores derivatives as objects and their checksum as an object tag.
type ObjectStore struct {
	client ObjectClient
	bucket string
	tagKey string
}

// NewObjectStore returns a sink writing to bucket. tagKey names the checksum
// tag, e.g. "checksum" or "sha256".
func NewObjectStore(client ObjectClient, bucket, tagKey string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, tagKey: tagKey}
}

func (s *ObjectStore) Kind() domain.SinkKind { return domain.ObjectStoreSink }

func (s *ObjectStore) Checksum(ctx context.Context, key string) (string, bool, error) {
	tags, err := s.client.GetTags(ctx, s.bucket, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("while reading tags of %s: %w", key, err)
	}
	sum, ok := tags[s.tagKey]
	return sum, ok, nil
}

func (s *ObjectStore) Write(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.client.PutObject(ctx, s.bucket, key, data, contentType); err != nil {
		return fmt.Errorf("while uploading %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Tag(ctx context.Context, key, sum string) error {
	if err := s.client.PutTags(ctx, s.bucket, key, map[string]string{s.tagKey: sum}); err != nil {
		return fmt.Errorf("while tagging %s: %w", key, err)
	}
	return nil
}

func (s *ObjectStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.client.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("while downloading %s: %w", key, err)
	}
	return data, nil
}

func (s *ObjectStore) Clone() domain.Sink {
	c := *s
	return &c
}
