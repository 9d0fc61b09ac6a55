// Package provider wraps the grant-based email provider REST API.
package provider

import "context"

// Client is the subset of the provider API the backend uses.
// Every call is scoped to one grant, the provider's handle for a connected mailbox.
type Client interface {
	ListMessages(ctx context.Context, grantID string, q MessageQuery) (*MessagePage, error)
	GetMessage(ctx context.Context, grantID, messageID string) (*Message, error)
	UpdateMessage(ctx context.Context, grantID, messageID string, update MessageUpdate) (*Message, error)
	DeleteMessage(ctx context.Context, grantID, messageID string) error
	SendMessage(ctx context.Context, grantID string, req SendRequest) (*Message, error)

	ListFolders(ctx context.Context, grantID string) ([]Folder, error)

	ListContacts(ctx context.Context, grantID string, limit int) ([]Contact, error)
	CreateContact(ctx context.Context, grantID string, contact Contact) (*Contact, error)

	ListEvents(ctx context.Context, grantID string, q EventQuery) ([]Event, error)
	CreateEvent(ctx context.Context, grantID, calendarID string, event Event) (*Event, error)
}

// Connector runs the provider's hosted OAuth flow that yields a grant.
type Connector interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Grant, error)
}
