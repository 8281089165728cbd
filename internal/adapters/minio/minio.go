// Package minio stores uploaded file content in an S3-compatible
// object store. It pairs with the postgres adapter in remote
// deployments: metadata in the database, content in a bucket.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// urlExpiry is how long presigned download links stay valid.
const urlExpiry = 24 * time.Hour

// Config carries the object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Blobs implements the catalog blob store contract over a bucket.
type Blobs struct {
	client *minio.Client
	bucket string
	logger *zerolog.Logger
}

// Option configures Blobs.
type Option func(*Blobs)

// WithLogger sets the blob store's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(b *Blobs) {
		b.logger = logger
	}
}

// New connects to the object store and creates the bucket when
// missing.
func New(ctx context.Context, cfg Config, opts ...Option) (*Blobs, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errs.NewValidationError("endpoint", cfg.Endpoint,
			"object store endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errs.NewInitializationError("minio", err)
	}

	b := &Blobs{
		client: client,
		bucket: cfg.Bucket,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errs.NewInitializationError("minio", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errs.NewInitializationError("minio", err)
		}
		b.logger.Info().Str("bucket", cfg.Bucket).Msg("Created object store bucket")
	}

	return b, nil
}

// Put uploads the content under the given object name and returns the
// name as the locator.
func (b *Blobs) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	_, err := b.client.PutObject(ctx, b.bucket, name, r, size, minio.PutObjectOptions{})
	if err != nil {
		return "", errs.WrapPersistence("put", "blob", name, err)
	}
	return name, nil
}

// Delete removes a stored object.
func (b *Blobs) Delete(ctx context.Context, locator string) error {
	err := b.client.RemoveObject(ctx, b.bucket, locator, minio.RemoveObjectOptions{})
	if err != nil {
		return errs.WrapPersistence("delete", "blob", locator, err)
	}
	return nil
}

// URL returns a presigned download link for the stored object.
func (b *Blobs) URL(ctx context.Context, locator string) (string, error) {
	signed, err := b.client.PresignedGetObject(ctx, b.bucket, locator, urlExpiry, url.Values{})
	if err != nil {
		return "", errs.WrapPersistence("presign", "blob", locator, err)
	}
	return signed.String(), nil
}
