package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var _ ObjectStore = (*S3Store)(nil)

// S3Config holds connection settings for S3-compatible object storage.
// Endpoint is a bare host; path-style addressing is the default because
// most non-AWS S3 providers require it.
type S3Config struct {
	Endpoint  string
	Region    string
	KeyID     string
	Secret    string
	Bucket    string
	VHostURLs bool
}

// S3Store stores documents in S3-compatible object storage.
type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewS3Store creates a store for the configured bucket.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.Region == "" || cfg.KeyID == "" || cfg.Secret == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.KeyID, cfg.Secret, "",
		),
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s", cfg.Endpoint)),
		UsePathStyle: !cfg.VHostURLs,
	})

	return &S3Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
	}, nil
}

// Put uploads an object and returns its s3:// path.
func (s *S3Store) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// SignedGetURL generates a presigned GET URL for an s3:// path.
func (s *S3Store) SignedGetURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return "", err
	}

	result, err := s.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %q: %w", path, err)
	}
	return result.URL, nil
}

// Delete removes an object by its s3:// path.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("empty key in S3 path %q", path)
	}
	return bucket, key, nil
}
