package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FolderMapping caches the provider folder id behind a logical folder name.
// It is a read-through cache refreshed on sync, not a source of truth.
type FolderMapping struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID        string    `gorm:"not null;size:36;uniqueIndex:idx_folder_account_name" json:"account_id"`
	UserID           string    `gorm:"not null;size:36;index" json:"user_id"`
	FolderName       string    `gorm:"not null;size:255;uniqueIndex:idx_folder_account_name" json:"folder_name"`
	DisplayName      string    `gorm:"size:255" json:"display_name"`
	ProviderFolderID string    `gorm:"not null;size:255" json:"provider_folder_id"`
	IsSystem         bool      `gorm:"default:false" json:"is_system"`
	MessageCount     int       `gorm:"default:0" json:"message_count"`
	UnreadCount      int       `gorm:"default:0" json:"unread_count"`
	LastSyncedAt     time.Time `json:"last_synced_at"`

	// Relationships
	Account *EmailAccount `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for FolderMapping
func (FolderMapping) TableName() string {
	return "folder_mappings"
}

// BeforeCreate assigns a UUID when none is set
func (f *FolderMapping) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FolderCount is the per-folder aggregate returned by the folder counts endpoint
type FolderCount struct {
	FolderName   string `json:"folder_name"`
	DisplayName  string `json:"display_name"`
	MessageCount int    `json:"message_count"`
	UnreadCount  int    `json:"unread_count"`
	Accounts     int    `json:"accounts"`
}
