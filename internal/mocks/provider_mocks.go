package mocks

import (
	"context"

	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/stretchr/testify/mock"
)

// MockProviderClient implements provider.Client
type MockProviderClient struct {
	mock.Mock
}

// ListMessages lists a page of messages
func (m *MockProviderClient) ListMessages(ctx context.Context, grantID string, q provider.MessageQuery) (*provider.MessagePage, error) {
	args := m.Called(ctx, grantID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.MessagePage), args.Error(1)
}

// GetMessage retrieves a message
func (m *MockProviderClient) GetMessage(ctx context.Context, grantID, messageID string) (*provider.Message, error) {
	args := m.Called(ctx, grantID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Message), args.Error(1)
}

// UpdateMessage updates a message
func (m *MockProviderClient) UpdateMessage(ctx context.Context, grantID, messageID string, update provider.MessageUpdate) (*provider.Message, error) {
	args := m.Called(ctx, grantID, messageID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Message), args.Error(1)
}

// DeleteMessage deletes a message
func (m *MockProviderClient) DeleteMessage(ctx context.Context, grantID, messageID string) error {
	args := m.Called(ctx, grantID, messageID)
	return args.Error(0)
}

// SendMessage sends a message
func (m *MockProviderClient) SendMessage(ctx context.Context, grantID string, req provider.SendRequest) (*provider.Message, error) {
	args := m.Called(ctx, grantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Message), args.Error(1)
}

// ListFolders lists folders
func (m *MockProviderClient) ListFolders(ctx context.Context, grantID string) ([]provider.Folder, error) {
	args := m.Called(ctx, grantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Folder), args.Error(1)
}

// ListContacts lists contacts
func (m *MockProviderClient) ListContacts(ctx context.Context, grantID string, limit int) ([]provider.Contact, error) {
	args := m.Called(ctx, grantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Contact), args.Error(1)
}

// CreateContact creates a contact
func (m *MockProviderClient) CreateContact(ctx context.Context, grantID string, contact provider.Contact) (*provider.Contact, error) {
	args := m.Called(ctx, grantID, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Contact), args.Error(1)
}

// ListEvents lists events
func (m *MockProviderClient) ListEvents(ctx context.Context, grantID string, q provider.EventQuery) ([]provider.Event, error) {
	args := m.Called(ctx, grantID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Event), args.Error(1)
}

// CreateEvent creates an event
func (m *MockProviderClient) CreateEvent(ctx context.Context, grantID, calendarID string, event provider.Event) (*provider.Event, error) {
	args := m.Called(ctx, grantID, calendarID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Event), args.Error(1)
}

// MockConnector implements provider.Connector
type MockConnector struct {
	mock.Mock
}

// AuthURL returns the hosted auth URL
func (m *MockConnector) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

// Exchange trades a code for a grant
func (m *MockConnector) Exchange(ctx context.Context, code string) (*provider.Grant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Grant), args.Error(1)
}
