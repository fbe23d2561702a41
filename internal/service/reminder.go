package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"licence-desk/internal/dataset"
	"licence-desk/internal/domain"
)

// ReminderService runs the daily licence expiry scan and exposes its
// findings.
type ReminderService struct {
	uploads   domain.UploadRepository
	docTypes  domain.DocumentTypeRepository
	reminders domain.ReminderRepository
	logger    *slog.Logger

	cron *cron.Cron
	now  func() time.Time
}

// NewReminderService creates a new ReminderService.
func NewReminderService(uploads domain.UploadRepository, docTypes domain.DocumentTypeRepository, reminders domain.ReminderRepository, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		uploads:   uploads,
		docTypes:  docTypes,
		reminders: reminders,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the scan with a standard 5-field cron expression and
// runs one scan immediately so findings are fresh after a restart.
func (s *ReminderService) Start(ctx context.Context, schedule string) error {
	if s.cron != nil {
		return fmt.Errorf("reminder scheduler already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Scan(context.Background()); err != nil {
			s.logger.Error("expiry scan failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule expiry scan %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()

	if _, err := s.Scan(ctx); err != nil {
		s.logger.Warn("initial expiry scan failed", "error", err)
	}
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}

// Scan finds every latest upload version that is expired or inside the
// expiring-soon window and upserts one reminder per upload. One-off
// documents never expire and are skipped. Returns the number of findings.
func (s *ReminderService) Scan(ctx context.Context) (int, error) {
	today := s.now()
	cutoff := today.AddDate(0, 0, domain.ExpiringSoonWindowDays+1)

	expiring, err := s.uploads.ListExpiring(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expiring uploads: %w", err)
	}

	types := map[int64]*domain.DocumentType{}
	count := 0
	for i := range expiring {
		upload := &expiring[i]

		dt, ok := types[upload.DocumentTypeID]
		if !ok {
			dt, err = s.docTypes.GetByID(ctx, upload.DocumentTypeID)
			if err != nil {
				s.logger.Warn("skipping upload with unknown document type",
					"upload_id", upload.ID, "document_type_id", upload.DocumentTypeID, "error", err)
				continue
			}
			types[upload.DocumentTypeID] = dt
		}
		if dt.Validity == domain.ValidityOneOff {
			continue
		}

		expiry, ok := dataset.ResolveExpiry(upload)
		if !ok {
			continue
		}
		status := dataset.Status(upload, dt.Validity, today)
		if status != domain.StatusExpired && status != domain.StatusExpiringSoon {
			continue
		}

		if _, err := s.reminders.Upsert(ctx, &domain.Reminder{
			UploadID:       upload.ID,
			CompanyID:      upload.CompanyID,
			DocumentTypeID: upload.DocumentTypeID,
			Status:         status,
			DueDate:        expiry,
			DaysLeft:       dataset.DaysLeft(expiry, today),
		}); err != nil {
			return count, fmt.Errorf("upsert reminder for upload %d: %w", upload.ID, err)
		}
		count++
	}

	s.logger.Info("expiry scan complete", "findings", count, "scanned", len(expiring))
	return count, nil
}

// List returns reminders ordered by due date.
func (s *ReminderService) List(ctx context.Context, page domain.PageRequest) ([]domain.Reminder, int64, error) {
	return s.reminders.List(ctx, page)
}
