// Package folders maps user-facing folder tokens onto provider folder ids
// and keeps the per-account folder mapping cache in sync.
package folders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
)

// Resolution strategies, in the order they are tried.
const (
	StrategyNone     = "none"
	StrategyMapping  = "mapping"
	StrategyProvider = "provider"
	StrategyLiteral  = "literal"
)

// Resolution is the outcome of resolving a folder token.
// An empty FolderIDs with StrategyNone means "no filter".
type Resolution struct {
	Token     string   `json:"token"`
	FolderIDs []string `json:"folder_ids"`
	Strategy  string   `json:"strategy"`
}

// Resolver turns a folder token into provider folder ids.
type Resolver struct {
	accounts repository.AccountRepository
	mappings repository.FolderMappingRepository
	client   provider.Client
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(accounts repository.AccountRepository, mappings repository.FolderMappingRepository, client provider.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{accounts: accounts, mappings: mappings, client: client, logger: logger}
}

// Resolve maps token onto provider folder ids for accountID, or across the
// user's accounts when accountID is empty. It tries synced mappings, then the
// live provider folder list, then treats id-shaped tokens literally.
// An unresolvable token returns ErrFolderNotFound, never an unfiltered result.
func (r *Resolver) Resolve(ctx context.Context, userID, accountID, token string) (*Resolution, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return &Resolution{Strategy: StrategyNone}, nil
	}

	ids, err := r.fromMappings(ctx, userID, accountID, token)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return &Resolution{Token: token, FolderIDs: ids, Strategy: StrategyMapping}, nil
	}

	ids, providerErr := r.fromProvider(ctx, userID, accountID, token)
	if len(ids) > 0 {
		return &Resolution{Token: token, FolderIDs: ids, Strategy: StrategyProvider}, nil
	}

	if looksLikeFolderID(token) {
		return &Resolution{Token: token, FolderIDs: []string{token}, Strategy: StrategyLiteral}, nil
	}

	if providerErr != nil {
		return nil, providerErr
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrFolderNotFound, token)
}

func (r *Resolver) fromMappings(ctx context.Context, userID, accountID, token string) ([]string, error) {
	mappings, err := r.mappings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	alias := canonicalAlias(token)
	var ids []string
	for _, m := range mappings {
		if accountID != "" && m.AccountID != accountID {
			continue
		}
		if mappingMatches(m, token, alias) {
			ids = appendUnique(ids, m.ProviderFolderID)
		}
	}
	return ids, nil
}

func mappingMatches(m models.FolderMapping, token, alias string) bool {
	return strings.EqualFold(m.FolderName, token) ||
		(alias != "" && m.FolderName == alias) ||
		(m.DisplayName != "" && strings.EqualFold(m.DisplayName, token)) ||
		m.ProviderFolderID == token ||
		m.ID == token
}

func (r *Resolver) fromProvider(ctx context.Context, userID, accountID, token string) ([]string, error) {
	var (
		account *models.EmailAccount
		err     error
	)
	if accountID != "" {
		account, err = r.accounts.GetForUser(ctx, userID, accountID)
	} else {
		account, err = r.accounts.GetPrimary(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}

	folders, err := r.client.ListFolders(ctx, account.GrantID)
	if err != nil {
		r.logger.Warn("live folder lookup failed",
			slog.String("account_id", account.ID),
			slog.String("kind", string(provider.KindOf(err))),
		)
		return nil, err
	}

	alias := canonicalAlias(token)
	var ids []string
	for _, f := range folders {
		if f.ID == token || strings.EqualFold(f.Name, token) || (alias != "" && matchesAlias(f, alias)) {
			ids = appendUnique(ids, f.ID)
		}
	}
	return ids, nil
}

// looksLikeFolderID accepts opaque provider ids such as Outlook's long
// base64 ids or Gmail label ids containing dashes.
func looksLikeFolderID(token string) bool {
	return len(token) > 20 || strings.Contains(token, "-")
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
