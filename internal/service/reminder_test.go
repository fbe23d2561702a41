package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

func TestReminderService_ScanFindsExpiringAndExpired(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")

	licence := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)
	vat := seedDocType(t, r, "VAT Certificate", domain.ValidityRenewal)
	moa := seedDocType(t, r, "Memorandum", domain.ValidityOneOff)
	insurance := seedDocType(t, r, "Insurance", domain.ValidityRenewal)

	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	in5 := today.AddDate(0, 0, 5)
	in200 := today.AddDate(0, 0, 200)
	past := today.AddDate(0, 0, -2)

	seedUpload(t, r, company.ID, licence.ID, &in5)
	seedUpload(t, r, company.ID, vat.ID, &past)
	seedUpload(t, r, company.ID, moa.ID, &in5) // one-off, skipped
	seedUpload(t, r, company.ID, insurance.ID, &in200)

	svc := NewReminderService(r.uploads, r.docTypes, r.reminders, testLogger())
	svc.now = func() time.Time { return today }

	count, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	reminders, total, err := svc.List(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	byType := map[int64]domain.Reminder{}
	for _, rem := range reminders {
		byType[rem.DocumentTypeID] = rem
	}
	assert.Equal(t, domain.StatusExpired, byType[vat.ID].Status)
	assert.Equal(t, -2, byType[vat.ID].DaysLeft)
	assert.Equal(t, domain.StatusExpiringSoon, byType[licence.ID].Status)
	assert.Equal(t, 5, byType[licence.ID].DaysLeft)
}

func TestReminderService_RescanDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	company := seedCompany(t, r, "ACME")
	licence := seedDocType(t, r, "Trade Licence", domain.ValidityRenewal)

	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	in5 := today.AddDate(0, 0, 5)
	seedUpload(t, r, company.ID, licence.ID, &in5)

	svc := NewReminderService(r.uploads, r.docTypes, r.reminders, testLogger())
	svc.now = func() time.Time { return today }

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)

	// Next day, same finding: the reminder is updated in place.
	svc.now = func() time.Time { return today.AddDate(0, 0, 1) }
	_, err = svc.Scan(context.Background())
	require.NoError(t, err)

	reminders, total, err := svc.List(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reminders, 1)
	assert.Equal(t, 4, reminders[0].DaysLeft)
}
