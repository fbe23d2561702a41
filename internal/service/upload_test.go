package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

func TestUploadService_StoresExtractsAndResolvesDates(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	store := newFakeStore()
	extractor := &fakeExtractor{details: map[string]any{
		"licence number": "TL-1001",
		"w.i.f":          "15/01/2025",
		"w.i.t":          "14-01-2026",
	}}

	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, store, extractor, r.audit, testLogger())

	upload, err := svc.Upload(context.Background(), domain.CreateUploadRequest{
		CompanyID:      company.ID,
		DocumentTypeID: docType.ID,
		FileName:       "licence.pdf",
		ContentType:    "application/pdf",
		SizeBytes:      4,
	}, bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)

	assert.Equal(t, 1, extractor.calls)
	assert.True(t, strings.HasPrefix(upload.ObjectPath, "s3://test-bucket/companies/"))
	assert.Equal(t, "TL-1001", upload.ExtractedDetails["licence number"])

	require.NotNil(t, upload.IssueDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), upload.IssueDate.UTC())
	require.NotNil(t, upload.ExpiryDate)
	assert.Equal(t, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), upload.ExpiryDate.UTC())
}

func TestUploadService_ExplicitDatesWinOverExtraction(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	extractor := &fakeExtractor{details: map[string]any{"w.i.t": "01/01/2030"}}
	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, newFakeStore(), extractor, r.audit, testLogger())

	manual := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	upload, err := svc.Upload(context.Background(), domain.CreateUploadRequest{
		CompanyID:      company.ID,
		DocumentTypeID: docType.ID,
		FileName:       "licence.pdf",
		ExpiryDate:     &manual,
	}, bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)

	require.NotNil(t, upload.ExpiryDate)
	assert.True(t, upload.ExpiryDate.Equal(manual), "manually entered expiry is not overwritten")
}

func TestUploadService_ExtractionFailureKeepsVersion(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	extractor := &fakeExtractor{err: context.DeadlineExceeded}
	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, newFakeStore(), extractor, r.audit, testLogger())

	upload, err := svc.Upload(context.Background(), domain.CreateUploadRequest{
		CompanyID:      company.ID,
		DocumentTypeID: docType.ID,
		FileName:       "licence.pdf",
	}, bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err, "the stored version survives extraction failure")
	assert.Nil(t, upload.ExtractedDetails)
	assert.Nil(t, upload.ExpiryDate)
}

func TestUploadService_NewVersionClearsOldReminder(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	soon := time.Now().AddDate(0, 0, 5)
	old := seedUpload(t, r, company.ID, docType.ID, &soon)
	_, err := r.reminders.Upsert(context.Background(), &domain.Reminder{
		UploadID: old.ID, CompanyID: company.ID, DocumentTypeID: docType.ID,
		Status: domain.StatusExpiringSoon, DueDate: soon, DaysLeft: 5,
	})
	require.NoError(t, err)

	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, newFakeStore(), nil, r.audit, testLogger())
	_, err = svc.Upload(context.Background(), domain.CreateUploadRequest{
		CompanyID:      company.ID,
		DocumentTypeID: docType.ID,
		FileName:       "renewed.pdf",
	}, bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)

	_, total, err := r.reminders.List(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, total, "superseded version's reminder is removed")
}

func TestUploadService_UploadBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	store := newFakeStore()
	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, store, nil, r.audit, testLogger())

	items := []BatchItem{
		{Request: domain.CreateUploadRequest{CompanyID: company.ID, DocumentTypeID: docType.ID, FileName: "a.pdf"}, File: bytes.NewReader([]byte("a"))},
		{Request: domain.CreateUploadRequest{CompanyID: 99999, DocumentTypeID: docType.ID, FileName: "b.pdf"}, File: bytes.NewReader([]byte("b"))},
		{Request: domain.CreateUploadRequest{CompanyID: company.ID, DocumentTypeID: docType.ID, FileName: "c.pdf"}, File: bytes.NewReader([]byte("c"))},
	}
	results := svc.UploadBatch(context.Background(), items)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "unknown company fails only its own item")
	assert.NoError(t, results[2].Err)
	assert.EqualValues(t, 2, store.puts.Load())
}

func TestUploadService_DownloadURL(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	docType := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)
	upload := seedUpload(t, r, company.ID, docType.ID, nil)

	svc := NewUploadService(r.uploads, r.companies, r.docTypes, r.reminders, newFakeStore(), nil, r.audit, testLogger())
	url, err := svc.DownloadURL(context.Background(), upload.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "https://signed.example.com/")
}
