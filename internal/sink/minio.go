package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/lewtec/imgvariant/internal/domain"
)

// MinioConfig holds the connection settings of an S3 compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioClient implements ObjectClient with minio-go. The underlying client is
// safe for concurrent use.
type MinioClient struct {
	client *minio.Client
	region string
}

// NewMinioClient builds a client. The endpoint may carry a scheme, in which
// case https turns TLS on.
func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: s3 endpoint is required", domain.ErrConfiguration)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: s3 credentials are required", domain.ErrConfiguration)
	}

	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid s3 endpoint: %v", domain.ErrConfiguration, err)
		}
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("while creating s3 client: %w", err)
	}
	return &MinioClient{client: client, region: cfg.Region}, nil
}

func (c *MinioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		err = classifyMinioError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (c *MinioClient) MakeBucket(ctx context.Context, bucket string) error {
	err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region})
	return classifyMinioError(err)
}

func (c *MinioClient) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return classifyMinioError(err)
}

func (c *MinioClient) GetObject(ctx context.Context, bucket, key string) ([]byte, Object, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, classifyMinioError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, Object{}, classifyMinioError(err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, Object{}, classifyMinioError(err)
	}
	return data, Object{Key: info.Key, Size: info.Size, ContentType: info.ContentType}, nil
}

func (c *MinioClient) GetTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	t, err := c.client.GetObjectTagging(ctx, bucket, key, minio.GetObjectTaggingOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	return t.ToMap(), nil
}

func (c *MinioClient) PutTags(ctx context.Context, bucket, key string, m map[string]string) error {
	t, err := tags.MapToObjectTags(m)
	if err != nil {
		return fmt.Errorf("while building tags for %s: %w", key, err)
	}
	err = c.client.PutObjectTagging(ctx, bucket, key, t, minio.PutObjectTaggingOptions{})
	return classifyMinioError(err)
}

func (c *MinioClient) List(ctx context.Context, bucket, prefix string, recursive bool) ([]Object, error) {
	var ret []Object
	for info := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if info.Err != nil {
			return nil, classifyMinioError(info.Err)
		}
		ret = append(ret, Object{
			Key:         info.Key,
			Size:        info.Size,
			ContentType: info.ContentType,
			IsPrefix:    strings.HasSuffix(info.Key, "/"),
		})
	}
	return ret, nil
}

// classifyMinioError maps S3 error responses onto the domain error kinds.
func classifyMinioError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchTagSet", "NoSuchTagSetError":
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrTransport, err)
}
