package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/easemail/easemail-backend/internal/mailbox"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/scheduler"
)

// mockFolderService implements FolderService
type mockFolderService struct {
	mock.Mock
}

// Sync refreshes an account's folder mappings
func (m *mockFolderService) Sync(ctx context.Context, account *models.EmailAccount) ([]models.FolderMapping, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FolderMapping), args.Error(1)
}

// Counts returns per-folder totals for a user
func (m *mockFolderService) Counts(ctx context.Context, userID string) ([]models.FolderCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FolderCount), args.Error(1)
}

// Forget drops an account's folder mappings
func (m *mockFolderService) Forget(ctx context.Context, userID, accountID string) error {
	args := m.Called(ctx, userID, accountID)
	return args.Error(0)
}

// mockMailboxService implements MailboxService
type mockMailboxService struct {
	mock.Mock
}

// List returns the unified page
func (m *mockMailboxService) List(ctx context.Context, q mailbox.Query) (*mailbox.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mailbox.Page), args.Error(1)
}

// ListAccount returns one account's page
func (m *mockMailboxService) ListAccount(ctx context.Context, q mailbox.AccountQuery) (*mailbox.AccountPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mailbox.AccountPage), args.Error(1)
}

// mockDeliveryProcessor implements DeliveryProcessor
type mockDeliveryProcessor struct {
	mock.Mock
}

// ProcessScheduled delivers due scheduled emails
func (m *mockDeliveryProcessor) ProcessScheduled(ctx context.Context, now time.Time) (*scheduler.BatchResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.BatchResult), args.Error(1)
}

// ProcessSnoozed resurfaces due snoozes
func (m *mockDeliveryProcessor) ProcessSnoozed(ctx context.Context, now time.Time) (*scheduler.BatchResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduler.BatchResult), args.Error(1)
}
