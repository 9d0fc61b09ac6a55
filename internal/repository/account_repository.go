package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for connected account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.EmailAccount) error
	GetByID(ctx context.Context, id string) (*models.EmailAccount, error)
	GetForUser(ctx context.Context, userID, id string) (*models.EmailAccount, error)
	ListByUser(ctx context.Context, userID string) ([]models.EmailAccount, error)
	GetPrimary(ctx context.Context, userID string) (*models.EmailAccount, error)
	Upsert(ctx context.Context, account *models.EmailAccount) (bool, error)
	SetPrimary(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
}

// accountRepository implements AccountRepository using GORM
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *models.EmailAccount) error {
	result := r.db.WithContext(ctx).Create(account)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("account '%s' already connected: %w", account.EmailAddress, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create account: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an account by its ID regardless of owner.
// Used by the background processor, which acts on behalf of every user.
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.EmailAccount, error) {
	var account models.EmailAccount
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", result.Error)
	}
	return &account, nil
}

// GetForUser retrieves an account owned by userID. Another user's account is reported as not found.
func (r *accountRepository) GetForUser(ctx context.Context, userID, id string) (*models.EmailAccount, error) {
	var account models.EmailAccount
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}
	return &account, nil
}

// ListByUser returns the user's accounts, primary first, then by connection time
func (r *accountRepository) ListByUser(ctx context.Context, userID string) ([]models.EmailAccount, error) {
	var accounts []models.EmailAccount
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		Find(&accounts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", result.Error)
	}
	return accounts, nil
}

// GetPrimary returns the primary account, falling back to the oldest one
func (r *accountRepository) GetPrimary(ctx context.Context, userID string) (*models.EmailAccount, error) {
	var account models.EmailAccount
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get primary account: %w", result.Error)
	}
	return &account, nil
}

// Upsert connects an account or refreshes the grant of an existing one.
// The user's first account becomes primary. Returns true when a row was created.
func (r *accountRepository) Upsert(ctx context.Context, account *models.EmailAccount) (bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.EmailAccount
		result := tx.Where("user_id = ? AND email_address = ?", account.UserID, account.EmailAddress).First(&existing)
		if result.Error == nil {
			updates := map[string]interface{}{
				"grant_id": account.GrantID,
				"provider": account.Provider,
			}
			if account.DisplayName != "" {
				updates["display_name"] = account.DisplayName
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}
			existing.GrantID = account.GrantID
			existing.Provider = account.Provider
			if account.DisplayName != "" {
				existing.DisplayName = account.DisplayName
			}
			*account = existing
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up account: %w", result.Error)
		}

		var count int64
		if err := tx.Model(&models.EmailAccount{}).Where("user_id = ?", account.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count accounts: %w", err)
		}
		account.IsPrimary = count == 0

		if err := tx.Create(account).Error; err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("account '%s' already connected: %w", account.EmailAddress, ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// SetPrimary makes id the user's only primary account
func (r *accountRepository) SetPrimary(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.EmailAccount{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if count == 0 {
			return ErrAccountNotFound
		}

		if err := tx.Model(&models.EmailAccount{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("failed to clear primary: %w", err)
		}
		if err := tx.Model(&models.EmailAccount{}).
			Where("id = ?", id).
			Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to set primary: %w", err)
		}
		return nil
	})
}

// Delete disconnects an account (cascade deletes mappings, scheduled emails and snoozes).
// When the primary account is removed the oldest remaining one is promoted.
func (r *accountRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.EmailAccount
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("failed to get account: %w", err)
		}

		if err := tx.Delete(&account).Error; err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}

		if !account.IsPrimary {
			return nil
		}

		var next models.EmailAccount
		err := tx.Where("user_id = ?", userID).Order("created_at ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find next primary: %w", err)
		}
		if err := tx.Model(&next).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to promote primary: %w", err)
		}
		return nil
	})
}
