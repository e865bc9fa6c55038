package variant

import (
	"context"

	"github.com/lewtec/imgvariant/internal/sink"
)

// OpenObjectClient connects to the configured object store.
func OpenObjectClient(s3 ConfigS3) (*sink.MinioClient, error) {
	return sink.NewMinioClient(sink.MinioConfig{
		Endpoint:  s3.Endpoint,
		Region:    s3.Region,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		UseSSL:    s3.UseSSL,
	})
}

// OpenSinks builds the sinks enabled by the export section. The bucket is
// probed, and created when export.create_bucket allows it.
func OpenSinks(ctx context.Context, cfg *Config) (sink.Set, error) {
	export, err := cfg.Export()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	var sinks sink.Set
	if export.Filesystem {
		sinks = append(sinks, sink.OpenFilesystem(cfg.FilesystemRoot(export)))
	}
	if export.S3 {
		s3, err := cfg.S3()
		if err != nil {
			return nil, err
		}
		client, err := OpenObjectClient(s3)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureBucket(ctx, client, s3.Bucket, export.CreateBucketEnabled()); err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewObjectStore(client, s3.Bucket, opts.Checksum.TagKey()))
	}
	return sinks, nil
}
