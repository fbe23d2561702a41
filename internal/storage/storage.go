// Package storage provides the object store behind document uploads.
// Files live in S3-compatible storage, Azure Blob Storage, or Google
// Cloud Storage; the rest of the system only sees provider-native paths
// like "s3://bucket/key" and short-lived signed download URLs.
package storage

import (
	"context"
	"io"
	"time"
)

// SignedURLTTL is how long a download link stays valid. Links are
// generated per request, so a short window is enough.
const SignedURLTTL = 60 * time.Second

// ObjectStore stores uploaded document files and hands out time-limited
// download URLs. Implementations: S3Store, AzureStore, GCSStore.
type ObjectStore interface {
	// Put uploads the object and returns its provider-native path.
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
	// SignedGetURL returns a presigned GET URL for a stored path.
	SignedGetURL(ctx context.Context, path string, expiry time.Duration) (string, error)
	// Delete removes a stored object.
	Delete(ctx context.Context, path string) error
}
