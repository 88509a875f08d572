//go:build gcp

package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSArchiveStore archives evidence packs in Google Cloud Storage.
type GCSArchiveStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSArchiveConfig configures the archive store.
type GCSArchiveConfig struct {
	Bucket string
	Prefix string // Optional key prefix
}

// NewGCSArchiveStore creates a GCS-backed archive store. Credentials come
// from ADC.
func NewGCSArchiveStore(ctx context.Context, cfg GCSArchiveConfig) (*GCSArchiveStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: create GCS client: %w", err)
	}
	return &GCSArchiveStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Archive uploads a pack and returns its content hash reference.
func (s *GCSArchiveStore) Archive(ctx context.Context, name string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	ref := "sha256:" + hex.EncodeToString(sum[:])

	w := s.client.Bucket(s.bucket).Object(s.prefix + name).NewWriter(ctx)
	w.ContentType = "application/zip"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("audit: gcs write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("audit: gcs close %s: %w", name, err)
	}
	return ref, nil
}

// Fetch retrieves an archived pack by name.
func (s *GCSArchiveStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.prefix + name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: gcs read %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// Close releases the GCS client.
func (s *GCSArchiveStore) Close() error {
	return s.client.Close()
}
