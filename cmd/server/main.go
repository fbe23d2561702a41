package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"licence-desk/internal/api"
	"licence-desk/internal/config"
	"licence-desk/internal/db"
	"licence-desk/internal/db/repository"
	"licence-desk/internal/declarative"
	"licence-desk/internal/extract"
	"licence-desk/internal/middleware"
	"licence-desk/internal/service"
	"licence-desk/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 8)
	if err != nil {
		return fmt.Errorf("open metastore: %w", err)
	}
	defer writeDB.Close()
	defer readDB.Close()
	if err := db.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	companyRepo := repository.NewCompanyRepo(writeDB)
	recordRepo := repository.NewRecordRepo(writeDB)
	mappingRepo := repository.NewMappingRepo(writeDB)
	docTypeRepo := repository.NewDocumentTypeRepo(writeDB)
	uploadRepo := repository.NewUploadRepo(writeDB)
	reminderRepo := repository.NewReminderRepo(writeDB)
	apiKeyRepo := repository.NewAPIKeyRepo(writeDB)
	auditRepo := repository.NewAuditRepo(writeDB)

	store, err := openObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure object storage: %w", err)
	}

	var extractor service.Extractor
	if cfg.Extraction.Enabled() {
		extractor = extract.NewClient(cfg.Extraction.URL, &http.Client{Timeout: cfg.Extraction.Timeout}, logger)
	}

	companySvc := service.NewCompanyService(companyRepo, recordRepo, auditRepo)
	mappingSvc := service.NewMappingService(mappingRepo, auditRepo)
	docTypeSvc := service.NewDocumentTypeService(docTypeRepo, auditRepo)
	datasetSvc := service.NewDatasetService(mappingRepo, companyRepo, recordRepo, logger)
	uploadSvc := service.NewUploadService(uploadRepo, companyRepo, docTypeRepo, reminderRepo, store, extractor, auditRepo, logger)
	complianceSvc := service.NewComplianceService(uploadRepo, docTypeRepo, companyRepo)
	reminderSvc := service.NewReminderService(uploadRepo, docTypeRepo, reminderRepo, logger)
	sheetSvc := service.NewSheetService(datasetSvc, companyRepo, recordRepo, auditRepo, logger)
	apiKeySvc := service.NewAPIKeyService(apiKeyRepo, auditRepo)
	auditSvc := service.NewAuditService(auditRepo)

	if cfg.DeclarativeDir != "" {
		if err := applyDeclarative(ctx, cfg.DeclarativeDir, mappingRepo, docTypeRepo, logger); err != nil {
			return fmt.Errorf("apply declarative config: %w", err)
		}
	}

	if err := reminderSvc.Start(ctx, cfg.ExpiryScanSchedule); err != nil {
		return fmt.Errorf("start expiry scan: %w", err)
	}
	defer reminderSvc.Stop()

	validator, err := buildValidator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}

	handler := api.NewHandler(
		companySvc, mappingSvc, docTypeSvc, datasetSvc, uploadSvc,
		complianceSvc, reminderSvc, sheetSvc, apiKeySvc, auditSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", cfg.Auth.APIKeyHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", api.Healthz)

	authOpts := middleware.AuthOptions{
		Validator:    validator,
		NameClaim:    cfg.Auth.NameClaim,
		APIKeyHeader: cfg.Auth.APIKeyHeader,
	}
	if cfg.Auth.APIKeyEnabled {
		// Key lookups run on every request; keep them on the read pool.
		authOpts.APIKeys = repository.NewAPIKeyRepo(readDB)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(authOpts))
		r.Mount("/", handler.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "host", curlHostForListenAddr(cfg.ListenAddr), "env", cfg.Env)
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openObjectStore builds the configured storage backend, or returns nil
// when storage is not configured (uploads disabled).
func openObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if !cfg.HasStorageConfig() {
		return nil, nil
	}
	switch cfg.Storage.Provider {
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			Endpoint: cfg.Storage.S3Endpoint,
			Region:   cfg.Storage.S3Region,
			KeyID:    cfg.Storage.S3KeyID,
			Secret:   cfg.Storage.S3Secret,
			Bucket:   cfg.Storage.S3Bucket,
		})
	case "azure":
		return storage.NewAzureStore(storage.AzureConfig{
			AccountName: cfg.Storage.AzureAccountName,
			AccountKey:  cfg.Storage.AzureAccountKey,
			Container:   cfg.Storage.AzureContainer,
		})
	case "gcs":
		return storage.NewGCSStore(ctx, storage.GCSConfig{
			KeyFilePath: cfg.Storage.GCSKeyFilePath,
			Bucket:      cfg.Storage.GCSBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

// buildValidator picks OIDC when an identity provider is configured and
// falls back to the HS256 shared secret otherwise.
func buildValidator(ctx context.Context, cfg *config.Config) (middleware.JWTValidator, error) {
	if cfg.Auth.JWKSURL != "" {
		return middleware.NewOIDCValidatorFromJWKS(ctx, cfg.Auth.JWKSURL, cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
	}
	if cfg.Auth.IssuerURL != "" {
		return middleware.NewOIDCValidator(ctx, cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
	}
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = "dev-secret-change-in-production"
	}
	return middleware.NewHS256Validator(secret)
}

// applyDeclarative loads the YAML config directory and converges the
// stored mappings and document types to it.
func applyDeclarative(ctx context.Context, dir string, mappings *repository.MappingRepo, docTypes *repository.DocumentTypeRepo, logger *slog.Logger) error {
	state, err := declarative.LoadDirectory(dir)
	if err != nil {
		return err
	}
	applier := declarative.NewApplier(mappings, docTypes, logger)
	plan, err := applier.Apply(ctx, state)
	if err != nil {
		return err
	}
	creates, updates := plan.Summary()
	logger.Info("declarative config applied", "dir", dir, "creates", creates, "updates", updates)
	return nil
}

// curlHostForListenAddr turns a listen address into a host clients can
// actually reach, mapping wildcard binds to localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
