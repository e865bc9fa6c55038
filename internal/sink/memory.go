package sink

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/lewtec/imgvariant/internal/domain"
)

type memoryObject struct {
	data        []byte
	contentType string
	tags        map[string]string
}

// MemoryClient is an in process ObjectClient. It backs tests and local dry
// runs.
type MemoryClient struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*memoryObject

	// FailPut and FailTags, when set, make the matching calls fail with a
	// transport error.
	FailPut  func(key string) bool
	FailTags func(key string) bool
}

func NewMemoryClient(buckets ...string) *MemoryClient {
	c := &MemoryClient{buckets: map[string]map[string]*memoryObject{}}
	for _, b := range buckets {
		c.buckets[b] = map[string]*memoryObject{}
	}
	return c
}

func (c *MemoryClient) BucketExists(_ context.Context, bucket string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.buckets[bucket]
	return ok, nil
}

func (c *MemoryClient) MakeBucket(_ context.Context, bucket string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.buckets[bucket]; !ok {
		c.buckets[bucket] = map[string]*memoryObject{}
	}
	return nil
}

func (c *MemoryClient) bucket(name string) (map[string]*memoryObject, error) {
	b, ok := c.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %s", domain.ErrNotFound, name)
	}
	return b, nil
}

func (c *MemoryClient) PutObject(_ context.Context, bucket, key string, data []byte, contentType string) error {
	if c.FailPut != nil && c.FailPut(key) {
		return fmt.Errorf("%w: put %s refused", domain.ErrTransport, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.bucket(bucket)
	if err != nil {
		return err
	}
	// overwriting drops tags like S3 does
	b[key] = &memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (c *MemoryClient) GetObject(_ context.Context, bucket, key string) ([]byte, Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, err := c.bucket(bucket)
	if err != nil {
		return nil, Object{}, err
	}
	o, ok := b[key]
	if !ok {
		return nil, Object{}, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return append([]byte(nil), o.data...), Object{Key: key, Size: int64(len(o.data)), ContentType: o.contentType}, nil
}

func (c *MemoryClient) GetTags(_ context.Context, bucket, key string) (map[string]string, error) {
	if c.FailTags != nil && c.FailTags(key) {
		return nil, fmt.Errorf("%w: tags of %s unavailable", domain.ErrTransport, key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, err := c.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o, ok := b[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return maps.Clone(o.tags), nil
}

func (c *MemoryClient) PutTags(_ context.Context, bucket, key string, tags map[string]string) error {
	if c.FailTags != nil && c.FailTags(key) {
		return fmt.Errorf("%w: tags of %s refused", domain.ErrTransport, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.bucket(bucket)
	if err != nil {
		return err
	}
	o, ok := b[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	o.tags = maps.Clone(tags)
	return nil
}

func (c *MemoryClient) List(_ context.Context, bucket, prefix string, recursive bool) ([]Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, err := c.bucket(bucket)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ret []Object
	for key, o := range b {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if !recursive {
			if i := strings.Index(rest, "/"); i >= 0 {
				p := prefix + rest[:i+1]
				if !seen[p] {
					seen[p] = true
					ret = append(ret, Object{Key: p, IsPrefix: true})
				}
				continue
			}
		}
		ret = append(ret, Object{Key: key, Size: int64(len(o.data)), ContentType: o.contentType})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Key < ret[j].Key })
	return ret, nil
}
