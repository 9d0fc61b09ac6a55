package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
)

// ScheduledEmailRepository defines the interface for scheduled email data access
type ScheduledEmailRepository interface {
	Create(ctx context.Context, email *models.ScheduledEmail) error
	GetForUser(ctx context.Context, userID, id string) (*models.ScheduledEmail, error)
	ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.ScheduledEmail, int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error)
	MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	Cancel(ctx context.Context, userID, id string) error
}

// scheduledEmailRepository implements ScheduledEmailRepository using GORM
type scheduledEmailRepository struct {
	db *gorm.DB
}

// NewScheduledEmailRepository creates a new ScheduledEmailRepository instance
func NewScheduledEmailRepository(db *gorm.DB) ScheduledEmailRepository {
	return &scheduledEmailRepository{db: db}
}

// Create stores a new pending scheduled email
func (r *scheduledEmailRepository) Create(ctx context.Context, email *models.ScheduledEmail) error {
	email.Status = models.StatusPending
	if err := r.db.WithContext(ctx).Create(email).Error; err != nil {
		return fmt.Errorf("failed to create scheduled email: %w", err)
	}
	return nil
}

// GetForUser retrieves a scheduled email owned by userID
func (r *scheduledEmailRepository) GetForUser(ctx context.Context, userID, id string) (*models.ScheduledEmail, error) {
	var email models.ScheduledEmail
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledEmailNotFound
		}
		return nil, fmt.Errorf("failed to get scheduled email: %w", result.Error)
	}
	return &email, nil
}

// ListByUser lists the user's scheduled emails, soonest first. An empty status lists all.
func (r *scheduledEmailRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.ScheduledEmail, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ScheduledEmail{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count scheduled emails: %w", err)
	}

	var emails []models.ScheduledEmail
	if err := query.Order("scheduled_for ASC").Limit(limit).Offset(offset).Find(&emails).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list scheduled emails: %w", err)
	}
	return emails, total, nil
}

// ListDue returns pending emails with scheduled_for <= now, oldest first
func (r *scheduledEmailRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error) {
	var emails []models.ScheduledEmail
	result := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.StatusPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list due scheduled emails: %w", result.Error)
	}
	return emails, nil
}

// MarkSent moves a pending email to sent
func (r *scheduledEmailRepository) MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error {
	return transitionPending(ctx, r.db, &models.ScheduledEmail{}, id, map[string]interface{}{
		"status":              models.StatusSent,
		"provider_message_id": providerMessageID,
		"sent_at":             at,
		"error_message":       "",
	}, ErrScheduledEmailNotFound)
}

// MarkFailed moves a pending email to failed with the reason
func (r *scheduledEmailRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	return transitionPending(ctx, r.db, &models.ScheduledEmail{}, id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": reason,
		"updated_at":    at,
	}, ErrScheduledEmailNotFound)
}

// Cancel moves the user's pending email to cancelled
func (r *scheduledEmailRepository) Cancel(ctx context.Context, userID, id string) error {
	if _, err := r.GetForUser(ctx, userID, id); err != nil {
		return err
	}
	return transitionPending(ctx, r.db, &models.ScheduledEmail{}, id, map[string]interface{}{
		"status": models.StatusCancelled,
	}, ErrScheduledEmailNotFound)
}
