package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-03-10", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"2026-03-10T09:15:00Z", time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC), true},
		{"5/4/2026", time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), true},
		{"5-4-2026", time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), true},
		{"5.4.2026", time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), true},
		{"31/12/99", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"-", time.Time{}, false},
		{"soon", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseFlexibleDate(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestFindExpiryDate_SubstringAndAlias(t *testing.T) {
	t.Parallel()

	details := map[string]any{"Expiry Date": "1/6/2026"}
	got, ok := FindExpiryDate(details, nil)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), got)

	details = map[string]any{"W.I.T": "2026-06-01"}
	got, ok = FindExpiryDate(details, nil)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFindIssueDate_FirstMatchWins(t *testing.T) {
	t.Parallel()

	details := map[string]any{
		"registration_date": "1/1/2025",
		"issue_date":        "2/2/2025",
	}
	// Key order supplied by the caller decides which match wins.
	got, ok := FindIssueDate(details, []string{"registration_date", "issue_date"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = FindIssueDate(details, []string{"issue_date", "registration_date"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestFindIssueDate_SkipsUnparseableMatches(t *testing.T) {
	t.Parallel()

	details := map[string]any{
		"issue_date": "pending",
		"w.i.f":      "3/3/2025",
	}
	got, ok := FindIssueDate(details, []string{"issue_date", "w.i.f"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestFindExpiryDate_NoMatch(t *testing.T) {
	t.Parallel()

	_, ok := FindExpiryDate(map[string]any{"licence_number": "TL-1"}, nil)
	assert.False(t, ok)
}
