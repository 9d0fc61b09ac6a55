package repository

import (
	"context"
	"fmt"

	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SpamReportRepository defines the interface for spam report data access
type SpamReportRepository interface {
	Create(ctx context.Context, report *models.SpamReport) error
	IsReported(ctx context.Context, userID, senderEmail string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.SpamReport, int64, error)
	Delete(ctx context.Context, userID, id string) error
}

// spamReportRepository implements SpamReportRepository using GORM
type spamReportRepository struct {
	db *gorm.DB
}

// NewSpamReportRepository creates a new SpamReportRepository instance
func NewSpamReportRepository(db *gorm.DB) SpamReportRepository {
	return &spamReportRepository{db: db}
}

// Create records a reported sender. Reporting the same sender twice is a no-op
// and report is filled with the existing row.
func (r *spamReportRepository) Create(ctx context.Context, report *models.SpamReport) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "sender_email"}},
		DoNothing: true,
	}).Create(report)
	if result.Error != nil {
		return fmt.Errorf("failed to create spam report: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var existing models.SpamReport
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND sender_email = ?", report.UserID, report.SenderEmail).
		First(&existing).Error; err != nil {
		return fmt.Errorf("failed to load existing spam report: %w", err)
	}
	*report = existing
	return nil
}

// IsReported reports whether the user flagged senderEmail before
func (r *spamReportRepository) IsReported(ctx context.Context, userID, senderEmail string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SpamReport{}).
		Where("user_id = ? AND sender_email = ?", userID, senderEmail).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check spam report: %w", err)
	}
	return count > 0, nil
}

// ListByUser lists the user's reported senders, newest first
func (r *spamReportRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.SpamReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SpamReport{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count spam reports: %w", err)
	}

	var reports []models.SpamReport
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list spam reports: %w", err)
	}
	return reports, total, nil
}

// Delete removes one of the user's reports
func (r *spamReportRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.SpamReport{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete spam report: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
