package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the S3 connection settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Client replaces Endpoint and the credentials when set.
	Client *minio.Client
}

func (c MinioConfig) validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required when client is not provided")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("access key and secret key are required when client is not provided")
	}
	return nil
}

// MinioStore keeps blobs as objects in a single bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a client for cfg. It does not contact the server.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("storage: invalid minio config: %w", err)
	}
	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: create minio client: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put implements Store.
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if _, err := s.client.PutObject(ctx, s.bucket, k, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", translateMinioError(err)
	}
	return s.URL(k), nil
}

// Get implements Store. The object is stat'ed first so a missing key fails
// here rather than on the first Read.
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, k, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioError(err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, translateMinioError(err)
	}
	return obj, nil
}

// Delete implements Store. S3 deletes are idempotent, so the object is
// stat'ed first to report ErrNotFound.
func (s *MinioStore) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, k, minio.StatObjectOptions{}); err != nil {
		return translateMinioError(err)
	}
	return translateMinioError(s.client.RemoveObject(ctx, s.bucket, k, minio.RemoveObjectOptions{}))
}

// URL returns the path-style object URL for key.
func (s *MinioStore) URL(key string) string {
	return joinURL(s.client.EndpointURL().String(), s.bucket+"/"+key)
}

func translateMinioError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
