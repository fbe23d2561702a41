package dataset

import (
	"time"

	"licence-desk/internal/domain"
)

// DaysLeft returns the whole days between today and the expiry date.
// Both instants are truncated to their calendar date first.
func DaysLeft(expiry, today time.Time) int {
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(n).Hours() / 24)
}

// Status derives the compliance status of a document slot.
//
//	no upload                 -> Pending
//	one-off document type     -> Valid (no expiry concept)
//	daysLeft < 0              -> Expired
//	0 <= daysLeft <= 30       -> Expiring Soon
//	daysLeft > 30             -> Valid
//
// A renewal upload without a resolvable expiry date counts as Pending:
// the record exists but cannot prove compliance.
func Status(upload *domain.Upload, validity domain.Validity, today time.Time) domain.LicenceStatus {
	if upload == nil {
		return domain.StatusPending
	}
	if validity == domain.ValidityOneOff {
		return domain.StatusValid
	}

	expiry, ok := resolveExpiry(upload)
	if !ok {
		return domain.StatusPending
	}

	days := DaysLeft(expiry, today)
	switch {
	case days < 0:
		return domain.StatusExpired
	case days <= domain.ExpiringSoonWindowDays:
		return domain.StatusExpiringSoon
	default:
		return domain.StatusValid
	}
}

// ResolveExpiry finds the upload's effective expiry date: the heuristic
// scan over extracted details first, then the structured column.
func ResolveExpiry(upload *domain.Upload) (time.Time, bool) {
	return resolveExpiry(upload)
}

func resolveExpiry(upload *domain.Upload) (time.Time, bool) {
	if upload.ExtractedDetails != nil {
		if t, ok := FindExpiryDate(upload.ExtractedDetails, nil); ok {
			return t, true
		}
	}
	if upload.ExpiryDate != nil {
		return *upload.ExpiryDate, true
	}
	return time.Time{}, false
}

// ResolveIssue finds the upload's effective issue date, same precedence
// as ResolveExpiry.
func ResolveIssue(upload *domain.Upload) (time.Time, bool) {
	if upload.ExtractedDetails != nil {
		if t, ok := FindIssueDate(upload.ExtractedDetails, nil); ok {
			return t, true
		}
	}
	if upload.IssueDate != nil {
		return *upload.IssueDate, true
	}
	return time.Time{}, false
}
