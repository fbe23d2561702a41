// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthConfig holds authentication and identity provider configuration.
type AuthConfig struct {
	// OIDC / JWKS configuration
	IssuerURL      string        // OIDC issuer URL (e.g., https://login.microsoftonline.com/{tenant}/v2.0)
	JWKSURL        string        // Override JWKS URL (if no .well-known discovery)
	JWTSecret      string        // HS256 shared secret for local/dev JWT auth
	Audience       string        // Required JWT audience claim
	AllowedIssuers []string      // Accepted issuers (defaults to [IssuerURL])
	JWKSCacheTTL   time.Duration // JWKS cache duration (default: 1h)

	// API key settings
	APIKeyEnabled bool   // Enable API key auth (default: true)
	APIKeyHeader  string // Header name for API keys (default: X-API-Key)

	// Name resolution
	NameClaim string // JWT claim for principal name (default: "email")
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// StorageConfig holds object storage settings. Provider selects which
// backend the upload service uses; only that backend's fields need to be
// set.
type StorageConfig struct {
	Provider string // "s3" (default), "azure", or "gcs"

	// S3-compatible storage
	S3Endpoint string
	S3Region   string
	S3KeyID    string
	S3Secret   string
	S3Bucket   string

	// Azure Blob Storage
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string

	// Google Cloud Storage
	GCSKeyFilePath string
	GCSBucket      string
}

// ExtractionConfig holds settings for the document extraction service.
type ExtractionConfig struct {
	URL     string        // base URL of the extraction HTTP service; empty disables extraction
	Timeout time.Duration // per-request timeout (default: 60s)
}

// Enabled returns true when an extraction service is configured.
func (e *ExtractionConfig) Enabled() bool {
	return e.URL != ""
}

// Config holds the configuration for the HTTP API, metastore, and object
// storage.
type Config struct {
	MetaDBPath        string // path to SQLite metastore file
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// ExpiryScanSchedule is the cron expression for the daily licence
	// expiry scan (default "0 6 * * *").
	ExpiryScanSchedule string

	// DeclarativeDir is a directory of declarative YAML config applied at
	// startup; empty disables the apply.
	DeclarativeDir string

	Auth       AuthConfig
	Storage    StorageConfig
	Extraction ExtractionConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasStorageConfig returns true when the selected storage backend has all
// of its required fields set.
func (c *Config) HasStorageConfig() bool {
	s := c.Storage
	switch s.Provider {
	case "azure":
		return s.AzureAccountName != "" && s.AzureAccountKey != "" && s.AzureContainer != ""
	case "gcs":
		return s.GCSKeyFilePath != "" && s.GCSBucket != ""
	default:
		return s.S3Endpoint != "" && s.S3Region != "" && s.S3KeyID != "" && s.S3Secret != "" && s.S3Bucket != ""
	}
}

// LoadFromEnv loads configuration from environment variables.
// Storage and extraction variables are optional; the app can start
// without them, with uploads disabled.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:         os.Getenv("META_DB_PATH"),
		ListenAddr:         os.Getenv("LISTEN_ADDR"),
		TLSCertFile:        os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:         os.Getenv("TLS_KEY_FILE"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		Env:                os.Getenv("ENV"),
		ExpiryScanSchedule: os.Getenv("EXPIRY_SCAN_SCHEDULE"),
		DeclarativeDir:     os.Getenv("DECLARATIVE_CONFIG_DIR"),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	cfg.Storage = StorageConfig{
		Provider:         strings.ToLower(os.Getenv("STORAGE_PROVIDER")),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3Region:         os.Getenv("S3_REGION"),
		S3KeyID:          os.Getenv("S3_KEY_ID"),
		S3Secret:         os.Getenv("S3_SECRET"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:   os.Getenv("AZURE_CONTAINER"),
		GCSKeyFilePath:   os.Getenv("GCS_KEY_FILE"),
		GCSBucket:        os.Getenv("GCS_BUCKET"),
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "s3"
	}
	switch cfg.Storage.Provider {
	case "s3", "azure", "gcs":
	default:
		return nil, fmt.Errorf("unknown STORAGE_PROVIDER %q (want s3, azure, or gcs)", cfg.Storage.Provider)
	}

	cfg.Extraction = ExtractionConfig{
		URL:     os.Getenv("EXTRACTION_URL"),
		Timeout: 60 * time.Second,
	}
	if v := os.Getenv("EXTRACTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Extraction.Timeout = d
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Auth config
	cfg.Auth = AuthConfig{
		IssuerURL:     os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:       os.Getenv("AUTH_JWKS_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		Audience:      os.Getenv("AUTH_AUDIENCE"),
		APIKeyEnabled: true,
		APIKeyHeader:  os.Getenv("AUTH_API_KEY_HEADER"),
		NameClaim:     os.Getenv("AUTH_NAME_CLAIM"),
	}

	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = strings.Split(v, ",")
	}
	if v := os.Getenv("AUTH_JWKS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWKSCacheTTL = d
		}
	}
	if os.Getenv("AUTH_API_KEY_ENABLED") == "false" {
		cfg.Auth.APIKeyEnabled = false
	}

	// Auth config defaults
	if cfg.Auth.JWKSCacheTTL == 0 {
		cfg.Auth.JWKSCacheTTL = time.Hour
	}
	if cfg.Auth.APIKeyHeader == "" {
		cfg.Auth.APIKeyHeader = "X-API-Key"
	}
	if cfg.Auth.NameClaim == "" {
		cfg.Auth.NameClaim = "email"
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "licence_desk.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if !cfg.Auth.OIDCEnabled() {
		cfg.Warnings = append(cfg.Warnings, "OIDC is not configured; set AUTH_ISSUER_URL or AUTH_JWKS_URL")
	}
	if !cfg.HasStorageConfig() {
		cfg.Warnings = append(cfg.Warnings, "object storage is not fully configured; document uploads are disabled")
	}
	if !cfg.Extraction.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "EXTRACTION_URL not set; uploaded documents are stored without extraction")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.ExpiryScanSchedule == "" {
		cfg.ExpiryScanSchedule = "0 6 * * *"
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.OIDCEnabled() {
			return nil, fmt.Errorf("OIDC must be configured in production (set AUTH_ISSUER_URL or AUTH_JWKS_URL)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
