package repository

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
)

// Common repository errors. They alias the application sentinels so the
// API layer maps them to status codes without translation.
var (
	ErrNotFound               = apperrors.ErrNotFound
	ErrDuplicateEntry         = apperrors.ErrDuplicateEntry
	ErrInvalidInput           = apperrors.ErrInvalidInput
	ErrAccountNotFound        = apperrors.ErrAccountNotFound
	ErrScheduledEmailNotFound = apperrors.ErrScheduledEmailNotFound
	ErrSnoozeNotFound         = apperrors.ErrSnoozeNotFound
	ErrNotPending             = apperrors.ErrNotPending
)

// isDuplicateKeyError checks if the error is a duplicate key violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") // PostgreSQL unique violation code
}

// transitionPending applies updates to a pending record. A record that exists
// but already left pending yields ErrNotPending; a missing one yields notFound.
func transitionPending(ctx context.Context, db *gorm.DB, model interface{}, id string, updates map[string]interface{}, notFound error) error {
	result := db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check record: %w", err)
	}
	if count == 0 {
		return notFound
	}
	return ErrNotPending
}
