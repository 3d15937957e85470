package archive

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// GCSBackend uploads recordings to a Google Cloud Storage bucket.
type GCSBackend struct {
	bucket string
	client *storage.Client
}

func NewGCSBackend(ctx context.Context, bucket string) (*GCSBackend, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive: gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: create gcs client: %w", err)
	}
	return &GCSBackend{bucket: bucket, client: client}, nil
}

func (b *GCSBackend) Upload(ctx context.Context, localPath, remoteKey string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	w := b.client.Bucket(b.bucket).Object(remoteKey).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs upload: %w", err)
	}
	return w.Close()
}
