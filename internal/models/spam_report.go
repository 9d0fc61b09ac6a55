package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpamReport records a sender the user flagged as spam
type SpamReport struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"not null;size:36;uniqueIndex:idx_spam_user_sender" json:"user_id"`
	SenderEmail string    `gorm:"not null;size:255;uniqueIndex:idx_spam_user_sender" json:"sender_email"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for SpamReport
func (SpamReport) TableName() string {
	return "spam_reports"
}

// BeforeCreate assigns a UUID when none is set
func (r *SpamReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
