// Package sink implements the derivative persistence targets: a billy backed
// filesystem and an S3 compatible object store.
package sink

import (
	"context"
	"fmt"

	"github.com/lewtec/imgvariant/internal/domain"
)

// Object describes one stored object or, in non recursive listings, a
// common prefix.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	IsPrefix    bool
}

// ObjectClient is the subset of an S3 API the pipeline and the read service
// use. Missing buckets, keys and tag sets are reported as domain.ErrNotFound,
// every other failure wraps domain.ErrTransport.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, Object, error)
	GetTags(ctx context.Context, bucket, key string) (map[string]string, error)
	PutTags(ctx context.Context, bucket, key string, tags map[string]string) error
	List(ctx context.Context, bucket, prefix string, recursive bool) ([]Object, error)
}

// EnsureBucket probes the bucket and creates it when create is set. A missing
// bucket without create is a configuration error.
func EnsureBucket(ctx context.Context, client ObjectClient, bucket string, create bool) error {
	if bucket == "" {
		return fmt.Errorf("%w: bucket name is required", domain.ErrConfiguration)
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("while probing bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if !create {
		return fmt.Errorf("%w: bucket %q does not exist", domain.ErrConfiguration, bucket)
	}
	if err := client.MakeBucket(ctx, bucket); err != nil {
		return fmt.Errorf("while creating bucket %q: %w", bucket, err)
	}
	return nil
}
