package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery statuses shared by scheduled emails and snoozes.
// Pending is the only non-terminal status.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Recipient is a single addressee of an outgoing message
type Recipient struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// ScheduledEmail is a message queued for delivery at a later time
type ScheduledEmail struct {
	ID                string      `gorm:"primaryKey;size:36" json:"id"`
	UserID            string      `gorm:"not null;size:36;index" json:"user_id"`
	AccountID         string      `gorm:"not null;size:36;index" json:"account_id"`
	To                []Recipient `gorm:"serializer:json;type:text" json:"to"`
	Cc                []Recipient `gorm:"serializer:json;type:text" json:"cc,omitempty"`
	Subject           string      `json:"subject"`
	Body              string      `json:"body"`
	ScheduledFor      time.Time   `gorm:"not null;index:idx_scheduled_due,priority:2" json:"scheduled_for"`
	Status            string      `gorm:"not null;size:20;default:pending;index:idx_scheduled_due,priority:1" json:"status"`
	ErrorMessage      string      `json:"error_message,omitempty"`
	ProviderMessageID string      `gorm:"size:255" json:"provider_message_id,omitempty"`
	SentAt            *time.Time  `json:"sent_at,omitempty"`
	CreatedAt         time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Account *EmailAccount `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for ScheduledEmail
func (ScheduledEmail) TableName() string {
	return "scheduled_emails"
}

// BeforeCreate assigns a UUID and the pending status when unset
func (s *ScheduledEmail) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	return nil
}

// SnoozedEmail hides a message until SnoozeUntil, then resurfaces it
type SnoozedEmail struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	UserID       string     `gorm:"not null;size:36;index" json:"user_id"`
	AccountID    string     `gorm:"not null;size:36;index" json:"account_id"`
	MessageID    string     `gorm:"not null;size:255" json:"message_id"`
	FolderID     string     `gorm:"size:255" json:"folder_id,omitempty"`
	SnoozeUntil  time.Time  `gorm:"not null;index:idx_snooze_due,priority:2" json:"snooze_until"`
	Status       string     `gorm:"not null;size:20;default:pending;index:idx_snooze_due,priority:1" json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Account *EmailAccount `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for SnoozedEmail
func (SnoozedEmail) TableName() string {
	return "snoozed_emails"
}

// BeforeCreate assigns a UUID and the pending status when unset
func (s *SnoozedEmail) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	return nil
}
