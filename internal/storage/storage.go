package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Store keeps uploaded documents and hands out time-limited download URLs.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes an object key and rejects keys escaping the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." {
		return "", errors.New("empty object key")
	}
	return key, nil
}
