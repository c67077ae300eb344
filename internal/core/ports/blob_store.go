package ports

import (
	"context"
	"io"
	"time"
)

// BlobObject describes a stored file returned by a folder listing.
type BlobObject struct {
	Path         string
	Name         string
	Size         int64
	LastModified time.Time
}

// BlobStore stores uploaded files under per-user paths.
type BlobStore interface {
	Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error)
	PublicURL(bucket, path string) string
	List(ctx context.Context, bucket, folder string) ([]BlobObject, error)
	SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}
