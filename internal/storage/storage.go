// Package storage persists uploaded blobs. Store is implemented by
// BillyStore (local directory or in-memory, via go-billy) and MinioStore
// (S3-compatible object storage).
//
// Keys are slash-separated relative paths such as "avatars/<id>.png".
// Absolute keys and keys escaping the root with ".." are rejected.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store is a flat blob store.
type Store interface {
	// Put writes size bytes from r under key and returns the public URL.
	// size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Get opens the blob at key. Missing blobs yield ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at key. Missing blobs yield ErrNotFound.
	Delete(ctx context.Context, key string) error
}

var (
	// ErrNotFound is returned for keys that hold no blob.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for empty, absolute or escaping keys.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Backend names accepted by Config.Backend.
const (
	BackendFS     = "fs"
	BackendMemory = "memory"
	BackendMinio  = "minio"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir is the root directory for BackendFS.
	Dir string
	// PublicURL prefixes returned URLs for the billy backends, e.g. "/uploads".
	PublicURL string
	Minio     MinioConfig
}

// New builds the Store described by cfg.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFS, "":
		return NewLocalStore(cfg.Dir, cfg.PublicURL)
	case BackendMemory:
		return NewMemoryStore(cfg.PublicURL), nil
	case BackendMinio:
		s, err := NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// cleanKey normalises key and rejects anything outside the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidKey
	}
	return c, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
