// Package service implements the application services on top of the
// domain repositories: companies and records, schema mappings, document
// types, resolved datasets, uploads with extraction, compliance status,
// reminders, audit, and API keys.
package service

import (
	"context"

	"licence-desk/internal/domain"
	"licence-desk/internal/middleware"
)

// AuditService exposes the audit log.
type AuditService struct {
	repo domain.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	return s.repo.List(ctx, page)
}

// callerName returns the authenticated principal, or empty when the call
// comes from inside the process (CLI, scheduler).
func callerName(ctx context.Context) string {
	name, _ := middleware.PrincipalFromContext(ctx)
	return name
}

// logAction records an audit entry for a mutation. Audit failures never
// fail the operation itself.
func logAction(ctx context.Context, audit domain.AuditRepository, action, entityType, entityID string, opErr error) {
	if audit == nil {
		return
	}
	entry := &domain.AuditEntry{
		PrincipalName: callerName(ctx),
		Action:        action,
		Status:        "OK",
	}
	if entityType != "" {
		entry.EntityType = &entityType
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	if opErr != nil {
		entry.Status = "ERROR"
		msg := opErr.Error()
		entry.ErrorMessage = &msg
	}
	_ = audit.Append(ctx, entry)
}
