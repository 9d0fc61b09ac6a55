package repository

import (
	"context"
	"fmt"

	"github.com/easemail/easemail-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderMappingRepository defines the interface for folder mapping data access
type FolderMappingRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.FolderMapping, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.FolderMapping, error)
	ReplaceForAccount(ctx context.Context, accountID string, mappings []models.FolderMapping) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// folderMappingRepository implements FolderMappingRepository using GORM
type folderMappingRepository struct {
	db *gorm.DB
}

// NewFolderMappingRepository creates a new FolderMappingRepository instance
func NewFolderMappingRepository(db *gorm.DB) FolderMappingRepository {
	return &folderMappingRepository{db: db}
}

// ListByUser returns every mapping across the user's accounts
func (r *folderMappingRepository) ListByUser(ctx context.Context, userID string) ([]models.FolderMapping, error) {
	var mappings []models.FolderMapping
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("account_id ASC").
		Order("folder_name ASC").
		Find(&mappings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list folder mappings: %w", result.Error)
	}
	return mappings, nil
}

// ListByAccount returns the mappings of one account
func (r *folderMappingRepository) ListByAccount(ctx context.Context, accountID string) ([]models.FolderMapping, error) {
	var mappings []models.FolderMapping
	result := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("folder_name ASC").
		Find(&mappings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list folder mappings: %w", result.Error)
	}
	return mappings, nil
}

// ReplaceForAccount upserts the given mappings on (account_id, folder_name)
// and removes mappings for folders that no longer exist.
func (r *folderMappingRepository) ReplaceForAccount(ctx context.Context, accountID string, mappings []models.FolderMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names := make([]string, 0, len(mappings))
		for i := range mappings {
			mappings[i].AccountID = accountID
			names = append(names, mappings[i].FolderName)
		}

		if len(mappings) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "account_id"}, {Name: "folder_name"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"display_name", "provider_folder_id", "is_system",
					"message_count", "unread_count", "last_synced_at",
				}),
			}).Create(&mappings).Error
			if err != nil {
				return fmt.Errorf("failed to upsert folder mappings: %w", err)
			}
		}

		stale := tx.Where("account_id = ?", accountID)
		if len(names) > 0 {
			stale = stale.Where("folder_name NOT IN ?", names)
		}
		if err := stale.Delete(&models.FolderMapping{}).Error; err != nil {
			return fmt.Errorf("failed to remove stale folder mappings: %w", err)
		}
		return nil
	})
}

// DeleteByAccount removes all mappings of an account
func (r *folderMappingRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.FolderMapping{}).Error; err != nil {
		return fmt.Errorf("failed to delete folder mappings: %w", err)
	}
	return nil
}
