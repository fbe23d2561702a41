package domain

import "time"

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID            string
	PrincipalName string
	Action        string // e.g. "CREATE_COMPANY", "UPDATE_MAPPING"
	EntityType    *string
	EntityID      *string
	Detail        *string
	Status        string // "OK" or "ERROR"
	ErrorMessage  *string
	CreatedAt     time.Time
}
