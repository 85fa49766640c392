package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-ingest/internal/config"
	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	sbClient *storage_go.Client
	bucket   string
}

func NewSupabaseStore(cfg config.SupabaseConfig, bucket string) *SupabaseStore {
	return &SupabaseStore{
		sbClient: storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil),
		bucket:   bucket,
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

// Put uploads data to Supabase Storage. The SDK has no context support.
func (s *SupabaseStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	upsert := false
	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	return fmt.Sprintf("supabase://%s/%s", s.bucket, key), nil
}

func (s *SupabaseStore) Delete(_ context.Context, key string) error {
	if _, err := s.sbClient.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to remove from supabase: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Ping(_ context.Context) error {
	if _, err := s.sbClient.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		return fmt.Errorf("supabase bucket %q unavailable: %w", s.bucket, err)
	}
	return nil
}

func (s *SupabaseStore) Close() error { return nil }
