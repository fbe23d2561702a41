package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Alias sets for heuristic date-field matching over extraction output.
// Substring matches come first; exact aliases cover the short-hand keys
// extraction services emit for trade licences ("w.i.f" = with effect
// from, "w.i.t" = valid until).
var (
	issueSubstrings  = []string{"issue", "start"}
	issueAliases     = map[string]bool{"w.i.f": true, "wif": true, "date_of_issue": true, "issue_date": true, "registration_date": true}
	expirySubstrings = []string{"expiry", "expiration", "end"}
	expiryAliases    = map[string]bool{"w.i.t": true, "wit": true, "valid_until": true, "valid_to": true, "expiry_date": true}
)

// FindIssueDate scans extraction output for an issue/start date. Keys are
// visited in the given order; the first key that matches AND parses wins.
func FindIssueDate(details map[string]any, keyOrder []string) (time.Time, bool) {
	return findDate(details, keyOrder, issueSubstrings, issueAliases)
}

// FindExpiryDate scans extraction output for an expiry/end date.
func FindExpiryDate(details map[string]any, keyOrder []string) (time.Time, bool) {
	return findDate(details, keyOrder, expirySubstrings, expiryAliases)
}

func findDate(details map[string]any, keyOrder []string, substrings []string, aliases map[string]bool) (time.Time, bool) {
	for _, key := range orderedKeys(details, keyOrder) {
		lower := strings.ToLower(strings.TrimSpace(key))
		if !matchesDateKey(lower, substrings, aliases) {
			continue
		}
		if t, ok := ParseFlexibleDate(stringify(details[key])); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func matchesDateKey(lower string, substrings []string, aliases map[string]bool) bool {
	if aliases[lower] {
		return true
	}
	for _, sub := range substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// orderedKeys yields the detail keys in a caller-supplied order when one
// is available (the schema's field order), then any remaining keys
// sorted. The heuristic is first-match-wins, so order matters.
func orderedKeys(details map[string]any, keyOrder []string) []string {
	keys := make([]string, 0, len(details))
	seen := make(map[string]bool, len(details))
	for _, k := range keyOrder {
		if _, ok := details[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(details))
	for k := range details {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// flexibleDateLayouts are tried in order after the delimiter is
// normalized to "/". Day-first formats take precedence: the source data
// is D/M/Y.
var flexibleDateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2006/1/2",
}

// ParseFlexibleDate parses ISO 8601 timestamps and D/M/Y, D-M-Y or D.M.Y
// date strings. Two-digit years 69-99 land in the 1900s.
func ParseFlexibleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "?" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	normalized := strings.NewReplacer("-", "/", ".", "/").Replace(s)
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stringify renders a scalar extraction value for parsing or display.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
