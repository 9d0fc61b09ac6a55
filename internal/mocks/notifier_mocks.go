package mocks

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// NotificationRecord records a notification sent through the mock notifier
type NotificationRecord struct {
	UserID  string
	Event   string
	Payload interface{}
}

// MockNotifier implements the realtime notifier used by the delivery processor
type MockNotifier struct {
	mock.Mock
	mu            sync.Mutex
	Notifications []NotificationRecord
}

// NewMockNotifier creates a MockNotifier that accepts any notification
func NewMockNotifier() *MockNotifier {
	n := &MockNotifier{}
	n.On("NotifyUser", mock.Anything, mock.Anything, mock.Anything).Return()
	return n
}

// NotifyUser records the notification
func (m *MockNotifier) NotifyUser(userID, event string, payload interface{}) {
	m.Called(userID, event, payload)
	m.mu.Lock()
	m.Notifications = append(m.Notifications, NotificationRecord{UserID: userID, Event: event, Payload: payload})
	m.mu.Unlock()
}

// Events returns the recorded event names in order
func (m *MockNotifier) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Notifications))
	for i, n := range m.Notifications {
		out[i] = n.Event
	}
	return out
}
