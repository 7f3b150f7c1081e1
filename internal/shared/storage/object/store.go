package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrExists is returned by Put when an object already lives at the key.
	ErrExists = errors.New("object already exists")
	// ErrNotFound is returned when no object lives at the key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey rejects empty, absolute or traversing keys.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Store saves and retrieves binary objects by key. Put never overwrites.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ValidateKey checks that key is a clean relative slash-separated path.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return ErrInvalidKey
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return ErrInvalidKey
		}
	}
	return nil
}
