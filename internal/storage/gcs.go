package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var _ ObjectStore = (*GCSStore)(nil)

// GCSConfig holds settings for Google Cloud Storage. KeyFilePath points
// to a service account key file, which is also what URL signing uses.
type GCSConfig struct {
	KeyFilePath string
	Bucket      string
}

// GCSStore stores documents in Google Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a store for the configured bucket.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.KeyFilePath == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("GCS config is incomplete")
	}

	client, err := gcs.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.KeyFilePath))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads an object and returns its gs:// path.
func (s *GCSStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finish object %q: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// SignedGetURL generates a signed GET URL for a gs:// path.
func (s *GCSStore) SignedGetURL(_ context.Context, path string, expiry time.Duration) (string, error) {
	bucket, key, err := parseGCSPath(path)
	if err != nil {
		return "", err
	}

	signedURL, err := s.client.Bucket(bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign GetObject for %q: %w", path, err)
	}
	return signedURL, nil
}

// Delete removes an object by its gs:// path.
func (s *GCSStore) Delete(ctx context.Context, path string) error {
	bucket, key, err := parseGCSPath(path)
	if err != nil {
		return err
	}
	if err := s.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

// parseGCSPath extracts bucket and key from a "gs://bucket/path/to/file"
// URI.
func parseGCSPath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse GCS path %q: %w", path, err)
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("expected gs:// scheme, got %q in %q", u.Scheme, path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("empty key in GCS path %q", path)
	}
	return bucket, key, nil
}
