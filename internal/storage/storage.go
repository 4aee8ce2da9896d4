// Package storage provides the byte-oriented blob store that holds uploaded
// images. Paths are slash-separated and relative to the store root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yukikurage/group-chat-api/internal/config"
)

var (
	ErrNotFound    = errors.New("storage: object not found")
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Storage is a blob store keyed by path.
type Storage interface {
	// Open opens the blob at p for reading.
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	// Create opens the blob at p for writing. The new content replaces the old
	// one when the writer is closed; a failed Close leaves the old content.
	Create(ctx context.Context, p string) (io.WriteCloser, error)
	Exists(ctx context.Context, p string) (bool, error)
	Delete(ctx context.Context, p string) error
}

// CleanPath normalizes p and rejects absolute paths and escapes above the root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// New builds the backend selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "local":
		return NewLocal(cfg.MediaRoot)
	case "minio":
		return NewMinio(ctx, MinioOptions{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
		})
	case "s3":
		return NewS3(ctx, S3Options{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
		})
	case "gcs":
		return NewGCS(ctx, cfg.StorageBucket, cfg.GCSCredentialsFile)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// ReadAll reads the whole blob at p.
func ReadAll(ctx context.Context, s Storage, p string) ([]byte, error) {
	r, err := s.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Save copies r into the blob at p.
func Save(ctx context.Context, s Storage, p string, r io.Reader) error {
	w, err := s.Create(ctx, p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	return w.Close()
}
