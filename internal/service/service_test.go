package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/db/repository"
	"licence-desk/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type repos struct {
	companies *repository.CompanyRepo
	records   *repository.RecordRepo
	mappings  *repository.MappingRepo
	docTypes  *repository.DocumentTypeRepo
	uploads   *repository.UploadRepo
	reminders *repository.ReminderRepo
	audit     *repository.AuditRepo
	apiKeys   *repository.APIKeyRepo
}

func newRepos(t *testing.T) (*repos, *sql.DB) {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	return &repos{
		companies: repository.NewCompanyRepo(writeDB),
		records:   repository.NewRecordRepo(writeDB),
		mappings:  repository.NewMappingRepo(writeDB),
		docTypes:  repository.NewDocumentTypeRepo(writeDB),
		uploads:   repository.NewUploadRepo(writeDB),
		reminders: repository.NewReminderRepo(writeDB),
		audit:     repository.NewAuditRepo(writeDB),
		apiKeys:   repository.NewAPIKeyRepo(writeDB),
	}, writeDB
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	objects map[string][]byte
	puts    atomic.Int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	f.puts.Add(1)
	return "s3://test-bucket/" + key, nil
}

func (f *fakeStore) SignedGetURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + path, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	return nil
}

// fakeExtractor returns canned extraction output.
type fakeExtractor struct {
	details map[string]any
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []domain.ExtractedField) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func seedCompany(t *testing.T, r *repos, name string) *domain.Company {
	t.Helper()
	company, err := r.companies.Create(context.Background(), domain.CreateCompanyRequest{Name: name})
	require.NoError(t, err)
	return company
}

func seedDocType(t *testing.T, r *repos, name string, validity domain.Validity) *domain.DocumentType {
	t.Helper()
	dt, err := r.docTypes.Create(context.Background(), domain.CreateDocumentTypeRequest{
		Name:     name,
		Category: "Licences",
		Validity: validity,
		Fields: []domain.ExtractedField{
			{ID: "f1", Name: "licence number", Type: domain.FieldText},
			{ID: "f2", Name: "w.i.f", Type: domain.FieldDate},
			{ID: "f3", Name: "w.i.t", Type: domain.FieldDate},
		},
	})
	require.NoError(t, err)
	return dt
}

func seedUpload(t *testing.T, r *repos, companyID, docTypeID int64, expiry *time.Time) *domain.Upload {
	t.Helper()
	u, err := r.uploads.Create(context.Background(), &domain.Upload{
		CompanyID:      companyID,
		DocumentTypeID: docTypeID,
		ObjectPath:     fmt.Sprintf("s3://test-bucket/seed/%d-%d.pdf", companyID, docTypeID),
		FileName:       "seed.pdf",
		ExpiryDate:     expiry,
	})
	require.NoError(t, err)
	return u
}
