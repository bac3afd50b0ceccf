package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// BillyStore keeps blobs in a billy.Filesystem: a directory on disk
// (NewLocalStore) or memory (NewMemoryStore).
type BillyStore struct {
	bfs       billy.Filesystem
	publicURL string
}

// NewLocalStore returns a store rooted at dir, creating it when missing.
func NewLocalStore(dir, publicURL string) (*BillyStore, error) {
	if dir == "" {
		return nil, errors.New("storage: upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &BillyStore{bfs: osfs.New(dir), publicURL: publicURL}, nil
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(publicURL string) *BillyStore {
	return &BillyStore{bfs: memfs.New(), publicURL: publicURL}
}

// Unwrap returns the underlying filesystem.
func (s *BillyStore) Unwrap() billy.Filesystem { return s.bfs }

// Put implements Store.
func (s *BillyStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dir := path.Dir(k); dir != "." {
		if err := s.bfs.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	f, err := s.bfs.Create(k)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.bfs.Remove(k)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return joinURL(s.publicURL, k), nil
}

// Get implements Store.
func (s *BillyStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.bfs.Open(k)
	if err != nil {
		return nil, translateFSError(err)
	}
	return f, nil
}

// Delete implements Store.
func (s *BillyStore) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	return translateFSError(s.bfs.Remove(k))
}

func translateFSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
