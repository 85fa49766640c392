package storage

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-ingest/internal/config"
)

// ObjectStore is a flat key/value blob store addressed by key within one bucket.
type ObjectStore interface {
	// Put writes data under key and returns the URI recorded for it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
	// Close releases the backend's client. The store is unusable afterwards.
	Close() error
}

var (
	_ ObjectStore = (*LocalStore)(nil)
	_ ObjectStore = (*MinIOStore)(nil)
	_ ObjectStore = (*SupabaseStore)(nil)
	_ ObjectStore = (*GCSStore)(nil)
)

// NewObjectStore builds the backend selected by STORAGE_BACKEND.
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return NewLocalStore(cfg.Storage.Root, cfg.Storage.Bucket)
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIO, cfg.Storage.Bucket)
	case "supabase":
		return NewSupabaseStore(cfg.Supabase, cfg.Storage.Bucket), nil
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS, cfg.Storage.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
