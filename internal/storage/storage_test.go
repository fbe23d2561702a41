package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3Path(t *testing.T) {
	t.Parallel()

	bucket, key, err := ParseS3Path("s3://docs/companies/7/licence.pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "companies/7/licence.pdf", key)

	_, _, err = ParseS3Path("https://docs/companies/7/licence.pdf")
	require.Error(t, err)

	_, _, err = ParseS3Path("s3://docs")
	require.Error(t, err)
}

func TestParseAzurePath(t *testing.T) {
	t.Parallel()

	container, key, err := parseAzurePath("az://docs/companies/7/licence.pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs", container)
	assert.Equal(t, "companies/7/licence.pdf", key)

	_, _, err = parseAzurePath("az://docs")
	require.Error(t, err)
}

func TestParseGCSPath(t *testing.T) {
	t.Parallel()

	bucket, key, err := parseGCSPath("gs://docs/companies/7/licence.pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "companies/7/licence.pdf", key)

	_, _, err = parseGCSPath("gs:///companies")
	require.Error(t, err)
}
