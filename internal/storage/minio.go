package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
	logger          *slog.Logger
}

// MinioStore is an S3-compatible Store that can also stream bucket notifications.
type MinioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioStore(opts ...MinioOpts) (*MinioStore, error) {
	cfg := &minioConfig{logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint is required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStore{cfg: cfg, client: client}, nil
}

func (s *MinioStore) Name() string { return "minio" }

// Bucket returns the default bucket.
func (s *MinioStore) Bucket() string { return s.cfg.bucket }

func (s *MinioStore) bucketOr(bucket string) string {
	if bucket == "" {
		return s.cfg.bucket
	}
	return bucket
}

func (s *MinioStore) Download(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucketOr(bucket), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioErr(err)
	}
	defer object.Close()

	info, err := object.Stat()
	if err != nil {
		return nil, translateMinioErr(err)
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, fmt.Errorf("%w: object is %d bytes", ErrTooLarge, info.Size)
	}
	return readLimited(object, maxBytes)
}

func (s *MinioStore) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketOr(bucket), key, data, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, s.bucketOr(bucket), key, minio.RemoveObjectOptions{})
}

func (s *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketOr(bucket), key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

// Ping checks that the default bucket is reachable.
func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.cfg.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.cfg.bucket)
	}
	return nil
}

// Listen streams object-created notifications for keys under prefix until ctx is done.
// Keys arrive URL-encoded from the server and are decoded here.
func (s *MinioStore) Listen(ctx context.Context, prefix string) <-chan ObjectEvent {
	out := make(chan ObjectEvent)
	go func() {
		defer close(out)
		for info := range s.client.ListenBucketNotification(ctx, s.cfg.bucket, prefix, "", []string{"s3:ObjectCreated:*"}) {
			if info.Err != nil {
				s.cfg.logger.Error("bucket notification error", "bucket", s.cfg.bucket, "error", info.Err)
				continue
			}
			for _, rec := range info.Records {
				key, err := url.QueryUnescape(rec.S3.Object.Key)
				if err != nil {
					key = rec.S3.Object.Key
				}
				ev := ObjectEvent{
					Bucket:      rec.S3.Bucket.Name,
					Key:         key,
					ContentType: rec.S3.Object.ContentType,
					Size:        rec.S3.Object.Size,
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func translateMinioErr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	return err
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

func WithLogger(logger *slog.Logger) MinioOpts {
	return func(c *minioConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
