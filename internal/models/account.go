package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailAccount is a mailbox a user has connected through the email provider
type EmailAccount struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"not null;size:36;index;uniqueIndex:idx_account_user_email" json:"user_id"`
	Provider     string    `gorm:"not null;size:50" json:"provider"`
	EmailAddress string    `gorm:"not null;size:255;uniqueIndex:idx_account_user_email" json:"email_address"`
	DisplayName  string    `gorm:"size:255" json:"display_name,omitempty"`
	GrantID      string    `gorm:"not null;size:255" json:"-"`
	IsPrimary    bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	FolderMappings  []FolderMapping  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	ScheduledEmails []ScheduledEmail `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	SnoozedEmails   []SnoozedEmail   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for EmailAccount
func (EmailAccount) TableName() string {
	return "email_accounts"
}

// BeforeCreate assigns a UUID when none is set
func (a *EmailAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Label returns the name shown next to messages from this account
func (a *EmailAccount) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.EmailAddress
}
