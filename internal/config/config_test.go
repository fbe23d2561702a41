package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStorageEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORAGE_PROVIDER", "S3_ENDPOINT", "S3_REGION", "S3_KEY_ID", "S3_SECRET", "S3_BUCKET",
		"AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY", "AZURE_CONTAINER",
		"GCS_KEY_FILE", "GCS_BUCKET", "META_DB_PATH", "EXTRACTION_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("S3_KEY_ID", "testkey")
	t.Setenv("S3_SECRET", "testsecret")
	t.Setenv("S3_ENDPOINT", "s3.example.com")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_BUCKET", "test-bucket")
	t.Setenv("META_DB_PATH", "/tmp/test.sqlite")
	t.Setenv("EXTRACTION_URL", "http://extract.local")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "testkey", cfg.Storage.S3KeyID)
	assert.Equal(t, "test-bucket", cfg.Storage.S3Bucket)
	assert.Equal(t, "/tmp/test.sqlite", cfg.MetaDBPath)
	assert.True(t, cfg.HasStorageConfig())
	assert.True(t, cfg.Extraction.Enabled())
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearStorageEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "licence_desk.sqlite", cfg.MetaDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "0 6 * * *", cfg.ExpiryScanSchedule)
	assert.False(t, cfg.HasStorageConfig())
	assert.False(t, cfg.Extraction.Enabled())
	assert.NotEmpty(t, cfg.Warnings, "missing storage and extraction produce warnings")
}

func TestHasStorageConfig_PartialS3(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("S3_KEY_ID", "testkey")
	t.Setenv("S3_ENDPOINT", "s3.example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.HasStorageConfig(), "partial S3 config should return false")
}

func TestHasStorageConfig_Azure(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("STORAGE_PROVIDER", "azure")
	t.Setenv("AZURE_ACCOUNT_NAME", "acct")
	t.Setenv("AZURE_ACCOUNT_KEY", "key")
	t.Setenv("AZURE_CONTAINER", "docs")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HasStorageConfig())
}

func TestLoadFromEnv_UnknownProvider(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("STORAGE_PROVIDER", "ftp")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_KEY=test_value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_KEY"); val != "test_value" {
		t.Errorf("TEST_KEY = %q, want %q", val, "test_value")
	}
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_COMMENT_KEY"); val != "value" {
		t.Errorf("TEST_COMMENT_KEY = %q, want %q", val, "value")
	}
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	err := os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0644)
	if err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if val := os.Getenv("TEST_PRECEDENCE_KEY"); val != "from_env" {
		t.Errorf("TEST_PRECEDENCE_KEY = %q, want %q (env precedence)", val, "from_env")
	}
}
