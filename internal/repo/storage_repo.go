package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores a local file under key and returns the location it can be
// fetched from.
type Uploader interface {
	Upload(ctx context.Context, localPath, key, contentType string) (string, error)
}

type StorageRepository interface {
	Uploader
	Read(ctx context.Context, key string) (io.ReadCloser, error)
}

type storageRepo struct {
	basePath  string
	publicURL string
}

// NewStorageRepository stores objects on the local filesystem under
// basePath. Returned locations are publicURL followed by the key.
func NewStorageRepository(basePath, publicURL string) StorageRepository {
	return &storageRepo{basePath: basePath, publicURL: publicURL}
}

func (r *storageRepo) Upload(ctx context.Context, localPath, key, _ string) (string, error) {
	fullPath, err := r.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := writeAndClose(dst, src); err != nil {
		return "", err
	}

	return r.publicURL + key, nil
}

// writeAndClose copies src into dst and closes dst, reporting a failed
// close as a failed write.
func writeAndClose(dst io.WriteCloser, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (r *storageRepo) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := r.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// resolve maps a key below basePath, rejecting keys that would escape it.
func (r *storageRepo) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	fullPath := filepath.Join(r.basePath, clean)
	base := filepath.Clean(r.basePath)
	if fullPath != base && !strings.HasPrefix(fullPath, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return fullPath, nil
}
