// Package mailbox merges message listings from all of a user's connected accounts.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/folders"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
	"golang.org/x/sync/errgroup"
)

// HasMoreCursor is the only cursor the unified view hands out. It signals
// that more messages exist but cannot be used to resume the listing.
const HasMoreCursor = "has_more"

// FolderResolver resolves folder tokens for one account.
type FolderResolver interface {
	Resolve(ctx context.Context, userID, accountID, token string) (*folders.Resolution, error)
}

// Query is a unified listing request.
type Query struct {
	UserID string
	Limit  int
	Folder string
	Cursor string
	Unread *bool
}

// AccountQuery is a listing request for a single account.
type AccountQuery struct {
	UserID    string
	AccountID string
	Limit     int
	Folder    string
	PageToken string
	Unread    *bool
}

// Message is a provider message tagged with the account it came from.
type Message struct {
	provider.Message
	AccountID    string `json:"account_id"`
	AccountEmail string `json:"account_email"`
	AccountName  string `json:"account_name"`
}

// AccountFailure describes an account that contributed no messages.
type AccountFailure struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

// Page is the unified listing result.
type Page struct {
	Messages   []Message        `json:"messages"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
	Accounts   int              `json:"accounts"`
	Warnings   []string         `json:"warnings,omitempty"`
	Failures   []AccountFailure `json:"failures,omitempty"`
}

// AccountPage is a single account listing result.
type AccountPage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// Aggregator fans listing requests out to every connected account.
type Aggregator struct {
	accounts repository.AccountRepository
	resolver FolderResolver
	client   provider.Client
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(accounts repository.AccountRepository, resolver FolderResolver, client provider.Client, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{accounts: accounts, resolver: resolver, client: client, logger: logger}
}

type accountResult struct {
	messages   []Message
	unresolved bool
	failure    *AccountFailure
}

// List returns up to Limit messages across the user's accounts, newest first.
// Each account is asked for ceil(limit/accounts) messages. A failing account
// contributes nothing and is reported in Failures; it never fails the page.
func (a *Aggregator) List(ctx context.Context, q Query) (*Page, error) {
	limit := validator.ClampLimit(q.Limit)

	accounts, err := a.accounts.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	page := &Page{Messages: []Message{}, Accounts: len(accounts)}
	if q.Cursor != "" {
		a.logger.Warn("unified cursor ignored", slog.String("user_id", q.UserID), slog.String("cursor", q.Cursor))
		page.Warnings = append(page.Warnings, "cursor pagination is not supported for the unified view; returned the first page")
	}
	if len(accounts) == 0 {
		return page, nil
	}

	perAccount := (limit + len(accounts) - 1) / len(accounts)
	results := make([]accountResult, len(accounts))

	var g errgroup.Group
	for i := range accounts {
		i, account := i, accounts[i]
		g.Go(func() error {
			results[i] = a.fetch(ctx, &account, q.Folder, perAccount, q.Unread)
			return nil
		})
	}
	_ = g.Wait()

	var merged []Message
	resolved := 0
	for i, r := range results {
		if r.failure != nil {
			a.logger.Warn("account listing failed",
				slog.String("account_id", r.failure.AccountID),
				slog.String("email", r.failure.Email),
				slog.String("kind", r.failure.Kind),
				slog.String("error", r.failure.Error),
			)
			page.Failures = append(page.Failures, *r.failure)
			continue
		}
		if r.unresolved {
			page.Warnings = append(page.Warnings, fmt.Sprintf("folder %q not found for %s", q.Folder, accounts[i].EmailAddress))
			continue
		}
		resolved++
		merged = append(merged, r.messages...)
	}

	if q.Folder != "" && resolved == 0 && len(page.Failures) == 0 {
		page.Warnings = append(page.Warnings, fmt.Sprintf("folder %q could not be resolved for any account", q.Folder))
		return page, nil
	}

	SortNewestFirst(merged)
	if len(merged) >= limit {
		page.HasMore = true
		page.NextCursor = HasMoreCursor
		merged = merged[:limit]
	}
	if merged != nil {
		page.Messages = merged
	}
	return page, nil
}

func (a *Aggregator) fetch(ctx context.Context, account *models.EmailAccount, folder string, limit int, unread *bool) accountResult {
	res, err := a.resolver.Resolve(ctx, account.UserID, account.ID, folder)
	if err != nil {
		if errors.Is(err, apperrors.ErrFolderNotFound) {
			return accountResult{unresolved: true}
		}
		return accountResult{failure: newFailure(account, err)}
	}

	page, err := a.client.ListMessages(ctx, account.GrantID, provider.MessageQuery{
		Limit:     limit,
		FolderIDs: res.FolderIDs,
		Unread:    unread,
	})
	if err != nil {
		return accountResult{failure: newFailure(account, err)}
	}
	return accountResult{messages: tag(page.Data, account)}
}

// ListAccount lists one account's messages and passes the provider's page token through.
func (a *Aggregator) ListAccount(ctx context.Context, q AccountQuery) (*AccountPage, error) {
	account, err := a.accounts.GetForUser(ctx, q.UserID, q.AccountID)
	if err != nil {
		return nil, err
	}

	out := &AccountPage{Messages: []Message{}}
	res, err := a.resolver.Resolve(ctx, q.UserID, account.ID, q.Folder)
	if err != nil {
		if errors.Is(err, apperrors.ErrFolderNotFound) {
			out.Warnings = append(out.Warnings, fmt.Sprintf("folder %q not found", q.Folder))
			return out, nil
		}
		return nil, err
	}

	page, err := a.client.ListMessages(ctx, account.GrantID, provider.MessageQuery{
		Limit:     validator.ClampLimit(q.Limit),
		FolderIDs: res.FolderIDs,
		PageToken: q.PageToken,
		Unread:    q.Unread,
	})
	if err != nil {
		return nil, err
	}

	out.Messages = tag(page.Data, account)
	out.NextCursor = page.NextCursor
	return out, nil
}

// SortNewestFirst orders messages by date descending, breaking ties by id.
func SortNewestFirst(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Date != messages[j].Date {
			return messages[i].Date > messages[j].Date
		}
		return messages[i].ID < messages[j].ID
	})
}

func tag(data []provider.Message, account *models.EmailAccount) []Message {
	out := make([]Message, 0, len(data))
	for _, m := range data {
		out = append(out, Message{
			Message:      m,
			AccountID:    account.ID,
			AccountEmail: account.EmailAddress,
			AccountName:  account.Label(),
		})
	}
	return out
}

func newFailure(account *models.EmailAccount, err error) *AccountFailure {
	return &AccountFailure{
		AccountID: account.ID,
		Email:     account.EmailAddress,
		Kind:      string(provider.KindOf(err)),
		Error:     err.Error(),
	}
}
