package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
)

// SnoozeRepository defines the interface for snoozed email data access
type SnoozeRepository interface {
	Create(ctx context.Context, snooze *models.SnoozedEmail) error
	GetForUser(ctx context.Context, userID, id string) (*models.SnoozedEmail, error)
	ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.SnoozedEmail, int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.SnoozedEmail, error)
	MarkResurfaced(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	Cancel(ctx context.Context, userID, id string) error
}

// snoozeRepository implements SnoozeRepository using GORM
type snoozeRepository struct {
	db *gorm.DB
}

// NewSnoozeRepository creates a new SnoozeRepository instance
func NewSnoozeRepository(db *gorm.DB) SnoozeRepository {
	return &snoozeRepository{db: db}
}

// Create stores a new pending snooze
func (r *snoozeRepository) Create(ctx context.Context, snooze *models.SnoozedEmail) error {
	snooze.Status = models.StatusPending
	if err := r.db.WithContext(ctx).Create(snooze).Error; err != nil {
		return fmt.Errorf("failed to create snooze: %w", err)
	}
	return nil
}

// GetForUser retrieves a snooze owned by userID
func (r *snoozeRepository) GetForUser(ctx context.Context, userID, id string) (*models.SnoozedEmail, error) {
	var snooze models.SnoozedEmail
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&snooze)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSnoozeNotFound
		}
		return nil, fmt.Errorf("failed to get snooze: %w", result.Error)
	}
	return &snooze, nil
}

// ListByUser lists the user's snoozes, soonest wake-up first. An empty status lists all.
func (r *snoozeRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.SnoozedEmail, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SnoozedEmail{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count snoozes: %w", err)
	}

	var snoozes []models.SnoozedEmail
	if err := query.Order("snooze_until ASC").Limit(limit).Offset(offset).Find(&snoozes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list snoozes: %w", err)
	}
	return snoozes, total, nil
}

// ListDue returns pending snoozes with snooze_until <= now, oldest first
func (r *snoozeRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.SnoozedEmail, error) {
	var snoozes []models.SnoozedEmail
	result := r.db.WithContext(ctx).
		Where("status = ? AND snooze_until <= ?", models.StatusPending, now).
		Order("snooze_until ASC").
		Limit(limit).
		Find(&snoozes)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list due snoozes: %w", result.Error)
	}
	return snoozes, nil
}

// MarkResurfaced moves a pending snooze to sent
func (r *snoozeRepository) MarkResurfaced(ctx context.Context, id string, at time.Time) error {
	return transitionPending(ctx, r.db, &models.SnoozedEmail{}, id, map[string]interface{}{
		"status":        models.StatusSent,
		"processed_at":  at,
		"error_message": "",
	}, ErrSnoozeNotFound)
}

// MarkFailed moves a pending snooze to failed with the reason
func (r *snoozeRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	return transitionPending(ctx, r.db, &models.SnoozedEmail{}, id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": reason,
		"processed_at":  at,
	}, ErrSnoozeNotFound)
}

// Cancel moves the user's pending snooze to cancelled
func (r *snoozeRepository) Cancel(ctx context.Context, userID, id string) error {
	if _, err := r.GetForUser(ctx, userID, id); err != nil {
		return err
	}
	return transitionPending(ctx, r.db, &models.SnoozedEmail{}, id, map[string]interface{}{
		"status": models.StatusCancelled,
	}, ErrSnoozeNotFound)
}
