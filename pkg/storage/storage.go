package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aims-edu/portal-api/pkg/config"
)

// BlobStore abstracts the binary object store holding uploaded study
// materials. Implementations must treat keys as opaque references.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New selects a blob store backend from configuration.
func New(cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
