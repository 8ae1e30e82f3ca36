package docstore

import (
	"context"
	"path"
	"strings"
)

// Storage is a flat key/value blob store. Keys use forward slashes.
type Storage interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Copy returns ErrNotFound when src is missing.
	Copy(ctx context.Context, src, dst string) error
	// DeleteDir removes every key under prefix. A missing prefix is not an error.
	DeleteDir(ctx context.Context, prefix string) error
	// LocalPath returns a filesystem path holding the content of key.
	LocalPath(ctx context.Context, key string) (string, error)
}

// cleanKey normalises key and rejects traversal and absolute forms.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, `\`, "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for part := range strings.SplitSeq(key, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	key = path.Clean(key)
	if key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
