// Package storage reads uploaded files from object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrTooLarge       = errors.New("object exceeds size limit")
)

// Store is an object store keyed by bucket and object key. An empty bucket means the store's default.
type Store interface {
	Download(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Ping(ctx context.Context) error
	Name() string
}

// ObjectEvent is a "new object" notification.
type ObjectEvent struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
}

// readLimited reads at most maxBytes, failing with ErrTooLarge when more is available.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
