package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

var today = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func uploadExpiring(expiry time.Time) *domain.Upload {
	return &domain.Upload{ID: 1, ExpiryDate: &expiry}
}

func TestStatus_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		expiry time.Time
		want   domain.LicenceStatus
	}{
		{"expired yesterday", today.AddDate(0, 0, -1), domain.StatusExpired},
		{"expires today", today, domain.StatusExpiringSoon},
		{"expires in 30 days", today.AddDate(0, 0, 30), domain.StatusExpiringSoon},
		{"expires in 31 days", today.AddDate(0, 0, 31), domain.StatusValid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Status(uploadExpiring(tt.expiry), domain.ValidityRenewal, today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_NoUpload(t *testing.T) {
	t.Parallel()
	assert.Equal(t, domain.StatusPending, Status(nil, domain.ValidityRenewal, today))
}

func TestStatus_OneOffAlwaysValid(t *testing.T) {
	t.Parallel()

	expired := today.AddDate(-1, 0, 0)
	assert.Equal(t, domain.StatusValid, Status(uploadExpiring(expired), domain.ValidityOneOff, today))
	assert.Equal(t, domain.StatusValid, Status(&domain.Upload{ID: 2}, domain.ValidityOneOff, today))
}

func TestStatus_RenewalWithoutExpiryIsPending(t *testing.T) {
	t.Parallel()
	assert.Equal(t, domain.StatusPending, Status(&domain.Upload{ID: 3}, domain.ValidityRenewal, today))
}

func TestStatus_HeuristicExpiryBeatsStructuredColumn(t *testing.T) {
	t.Parallel()

	structured := today.AddDate(1, 0, 0)
	u := &domain.Upload{
		ID:               4,
		ExpiryDate:       &structured,
		ExtractedDetails: map[string]any{"w.i.t": today.AddDate(0, 0, -5).Format("2006-01-02")},
	}
	assert.Equal(t, domain.StatusExpired, Status(u, domain.ValidityRenewal, today))
}

func TestResolveExpiry_FallsBackToColumn(t *testing.T) {
	t.Parallel()

	structured := today.AddDate(0, 1, 0)
	u := &domain.Upload{
		ID:               5,
		ExpiryDate:       &structured,
		ExtractedDetails: map[string]any{"expiry_date": "not a date"},
	}
	got, ok := ResolveExpiry(u)
	require.True(t, ok)
	assert.Equal(t, structured, got)
}

func TestDaysLeft_IgnoresTimeOfDay(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysLeft(expiry, today))
}
