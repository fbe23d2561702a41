package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

var _ ObjectStore = (*AzureStore)(nil)

// AzureConfig holds shared-key settings for Azure Blob Storage. Service
// principal auth is not supported because SAS signing needs the account
// key.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

// AzureStore stores documents in Azure Blob Storage and signs download
// links with SAS tokens.
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore creates a store for the configured container.
func NewAzureStore(cfg AzureConfig) (*AzureStore, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, fmt.Errorf("Azure config is incomplete")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureStore{client: client, container: cfg.Container}, nil
}

// Put uploads a blob and returns its az:// path.
func (s *AzureStore) Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	_, err := s.client.UploadStream(ctx, s.container, key, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %q: %w", key, err)
	}
	return fmt.Sprintf("az://%s/%s", s.container, key), nil
}

// SignedGetURL generates a SAS GET URL for an az:// path.
func (s *AzureStore) SignedGetURL(_ context.Context, path string, expiry time.Duration) (string, error) {
	container, key, err := parseAzurePath(path)
	if err != nil {
		return "", err
	}

	blobClient := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(key)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q: %w", path, err)
	}
	return sasURL, nil
}

// Delete removes a blob by its az:// path.
func (s *AzureStore) Delete(ctx context.Context, path string) error {
	container, key, err := parseAzurePath(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteBlob(ctx, container, key, nil)
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", path, err)
	}
	return nil
}

// parseAzurePath extracts container and key from an "az://container/key"
// URI.
func parseAzurePath(path string) (container, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse Azure path %q: %w", path, err)
	}
	if u.Scheme != "az" {
		return "", "", fmt.Errorf("expected az:// scheme, got %q in %q", u.Scheme, path)
	}
	container = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if container == "" || key == "" {
		return "", "", fmt.Errorf("incomplete Azure path %q", path)
	}
	return container, key, nil
}
