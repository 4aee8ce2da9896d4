package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores blobs in a Google Cloud Storage bucket. Objects are finalized
// when the writer is closed, so replacement is atomic.
type GCS struct {
	bucket *gcs.BucketHandle
}

// NewGCS creates a GCS-backed store. If credsPath is empty, Application
// Default Credentials are used.
func NewGCS(ctx context.Context, bucket, credsPath string) (*GCS, error) {
	var opts []option.ClientOption
	if credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: init gcs client: %w", err)
	}
	return &GCS{bucket: client.Bucket(bucket)}, nil
}

func (g *GCS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, err
	}
	return r, nil
}

func (g *GCS) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ChunkSize = 0 // profile images are small; upload in a single request
	return w, nil
}

func (g *GCS) Exists(ctx context.Context, p string) (bool, error) {
	key, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	if _, err := g.bucket.Object(key).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *GCS) Delete(ctx context.Context, p string) error {
	key, err := CleanPath(p)
	if err != nil {
		return err
	}
	if err := g.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return err
	}
	return nil
}
