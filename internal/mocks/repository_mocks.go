// Package mocks holds testify mocks for the repository, provider and notifier interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/easemail/easemail-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository implements repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

// Create creates a new account
func (m *MockAccountRepository) Create(ctx context.Context, account *models.EmailAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// GetByID retrieves an account by its ID
func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.EmailAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailAccount), args.Error(1)
}

// GetForUser retrieves an account owned by a user
func (m *MockAccountRepository) GetForUser(ctx context.Context, userID, id string) (*models.EmailAccount, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailAccount), args.Error(1)
}

// ListByUser lists a user's accounts
func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string) ([]models.EmailAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailAccount), args.Error(1)
}

// GetPrimary retrieves a user's primary account
func (m *MockAccountRepository) GetPrimary(ctx context.Context, userID string) (*models.EmailAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmailAccount), args.Error(1)
}

// Upsert connects or refreshes an account
func (m *MockAccountRepository) Upsert(ctx context.Context, account *models.EmailAccount) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

// SetPrimary marks an account as primary
func (m *MockAccountRepository) SetPrimary(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// Delete disconnects an account
func (m *MockAccountRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockFolderMappingRepository implements repository.FolderMappingRepository
type MockFolderMappingRepository struct {
	mock.Mock
}

// ListByUser lists a user's folder mappings
func (m *MockFolderMappingRepository) ListByUser(ctx context.Context, userID string) ([]models.FolderMapping, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FolderMapping), args.Error(1)
}

// ListByAccount lists an account's folder mappings
func (m *MockFolderMappingRepository) ListByAccount(ctx context.Context, accountID string) ([]models.FolderMapping, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FolderMapping), args.Error(1)
}

// ReplaceForAccount replaces an account's folder mappings
func (m *MockFolderMappingRepository) ReplaceForAccount(ctx context.Context, accountID string, mappings []models.FolderMapping) error {
	args := m.Called(ctx, accountID, mappings)
	return args.Error(0)
}

// DeleteByAccount removes an account's folder mappings
func (m *MockFolderMappingRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// MockScheduledEmailRepository implements repository.ScheduledEmailRepository
type MockScheduledEmailRepository struct {
	mock.Mock
}

// Create stores a scheduled email
func (m *MockScheduledEmailRepository) Create(ctx context.Context, email *models.ScheduledEmail) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// GetForUser retrieves a user's scheduled email
func (m *MockScheduledEmailRepository) GetForUser(ctx context.Context, userID, id string) (*models.ScheduledEmail, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledEmail), args.Error(1)
}

// ListByUser lists a user's scheduled emails
func (m *MockScheduledEmailRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.ScheduledEmail, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.ScheduledEmail), args.Get(1).(int64), args.Error(2)
}

// ListDue lists due scheduled emails
func (m *MockScheduledEmailRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledEmail, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduledEmail), args.Error(1)
}

// MarkSent marks a scheduled email as sent
func (m *MockScheduledEmailRepository) MarkSent(ctx context.Context, id, providerMessageID string, at time.Time) error {
	args := m.Called(ctx, id, providerMessageID, at)
	return args.Error(0)
}

// MarkFailed marks a scheduled email as failed
func (m *MockScheduledEmailRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	args := m.Called(ctx, id, reason, at)
	return args.Error(0)
}

// Cancel cancels a scheduled email
func (m *MockScheduledEmailRepository) Cancel(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockSnoozeRepository implements repository.SnoozeRepository
type MockSnoozeRepository struct {
	mock.Mock
}

// Create stores a snooze
func (m *MockSnoozeRepository) Create(ctx context.Context, snooze *models.SnoozedEmail) error {
	args := m.Called(ctx, snooze)
	return args.Error(0)
}

// GetForUser retrieves a user's snooze
func (m *MockSnoozeRepository) GetForUser(ctx context.Context, userID, id string) (*models.SnoozedEmail, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SnoozedEmail), args.Error(1)
}

// ListByUser lists a user's snoozes
func (m *MockSnoozeRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.SnoozedEmail, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.SnoozedEmail), args.Get(1).(int64), args.Error(2)
}

// ListDue lists due snoozes
func (m *MockSnoozeRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.SnoozedEmail, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SnoozedEmail), args.Error(1)
}

// MarkResurfaced marks a snooze as resurfaced
func (m *MockSnoozeRepository) MarkResurfaced(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MarkFailed marks a snooze as failed
func (m *MockSnoozeRepository) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	args := m.Called(ctx, id, reason, at)
	return args.Error(0)
}

// Cancel cancels a snooze
func (m *MockSnoozeRepository) Cancel(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockSpamReportRepository implements repository.SpamReportRepository
type MockSpamReportRepository struct {
	mock.Mock
}

// Create records a reported sender
func (m *MockSpamReportRepository) Create(ctx context.Context, report *models.SpamReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// IsReported checks whether a sender was reported
func (m *MockSpamReportRepository) IsReported(ctx context.Context, userID, senderEmail string) (bool, error) {
	args := m.Called(ctx, userID, senderEmail)
	return args.Bool(0), args.Error(1)
}

// ListByUser lists a user's reports
func (m *MockSpamReportRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.SpamReport, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.SpamReport), args.Get(1).(int64), args.Error(2)
}

// Delete removes a report
func (m *MockSpamReportRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
