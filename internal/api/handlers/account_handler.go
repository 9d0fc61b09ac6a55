package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/cache"
	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
)

// oauthStateTTL bounds how long a connect flow may take.
const oauthStateTTL = 10 * time.Minute

func oauthStateKey(state string) string {
	return "oauth-state:" + state
}

// AccountHandler handles connected mailbox accounts
type AccountHandler struct {
	accounts  repository.AccountRepository
	connector provider.Connector
	folders   FolderService
	cache     cache.Cache
	security  *logger.SecurityLogger
	logger    *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(
	accounts repository.AccountRepository,
	connector provider.Connector,
	folders FolderService,
	c cache.Cache,
	security *logger.SecurityLogger,
	log *slog.Logger,
) *AccountHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &AccountHandler{
		accounts:  accounts,
		connector: connector,
		folders:   folders,
		cache:     c,
		security:  security,
		logger:    log,
	}
}

// ConnectResponse carries the hosted-auth URL the client redirects to
type ConnectResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// CallbackRequest represents the body of the OAuth callback
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Connect handles GET /api/accounts/connect
func (h *AccountHandler) Connect(c echo.Context) error {
	userID := middleware.UserID(c)
	state := uuid.NewString()

	if err := h.cache.Set(c.Request().Context(), oauthStateKey(state), []byte(userID), oauthStateTTL); err != nil {
		return respondError(c, h.logger, "failed to start account connection", err)
	}

	return response.Success(c, ConnectResponse{
		URL:   h.connector.AuthURL(state),
		State: state,
	})
}

// Callback handles POST /api/accounts/callback.
// It exchanges the authorization code for a grant and upserts the account.
func (h *AccountHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	var req CallbackRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Code == "" || req.State == "" {
		return response.BadRequest(c, "code and state are required")
	}

	owner, ok, err := h.cache.Get(ctx, oauthStateKey(req.State))
	if err != nil {
		return respondError(c, h.logger, "failed to verify connection state", err)
	}
	if !ok || string(owner) != userID {
		h.security.SecurityEvent("oauth_state_mismatch", c.RealIP(), map[string]string{"user_id": userID})
		return response.BadRequest(c, "invalid or expired connection state")
	}
	if err := h.cache.Delete(ctx, oauthStateKey(req.State)); err != nil {
		h.logger.Warn("failed to clear connection state", slog.String("error", err.Error()))
	}

	grant, err := h.connector.Exchange(ctx, req.Code)
	if err != nil {
		return respondError(c, h.logger, "failed to exchange authorization code", translateProviderError(err))
	}
	if grant.GrantID == "" || validator.ValidateEmail(grant.Email) != nil {
		return respondError(c, h.logger, "failed to exchange authorization code",
			apperrors.External("provider", errors.New("grant response missing id or email")))
	}

	account := &models.EmailAccount{
		UserID:       userID,
		Provider:     grant.Provider,
		EmailAddress: validator.NormalizeEmail(grant.Email),
		GrantID:      grant.GrantID,
	}
	created, err := h.accounts.Upsert(ctx, account)
	if err != nil {
		return respondError(c, h.logger, "failed to save account", err)
	}

	h.logger.Info("account connected",
		slog.String("user_id", userID),
		slog.String("account_id", account.ID),
		slog.String("provider", account.Provider),
		slog.Bool("created", created),
	)
	h.syncFolders(ctx, account)

	if created {
		return response.Created(c, account)
	}
	return response.Success(c, account)
}

// syncFolders seeds folder mappings for a freshly connected account.
// Resolution falls back to the provider until a later sync succeeds.
func (h *AccountHandler) syncFolders(ctx context.Context, account *models.EmailAccount) {
	if h.folders == nil {
		return
	}
	if _, err := h.folders.Sync(ctx, account); err != nil {
		h.logger.Warn("initial folder sync failed",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}
}

// List handles GET /api/accounts
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accounts.ListByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, "failed to list accounts", err)
	}
	if accounts == nil {
		accounts = []models.EmailAccount{}
	}
	return response.Success(c, accounts)
}

// Get handles GET /api/accounts/:id
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}
	return response.Success(c, account)
}

// SetPrimary handles PATCH /api/accounts/:id/primary
func (h *AccountHandler) SetPrimary(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	if err := h.accounts.SetPrimary(c.Request().Context(), account.UserID, account.ID); err != nil {
		return respondError(c, h.logger, "failed to set primary account", err)
	}
	account.IsPrimary = true

	return response.SuccessWithMessage(c, account, "primary account updated")
}

// Delete handles DELETE /api/accounts/:id.
// Folder mappings, scheduled emails and snoozes go with the account.
func (h *AccountHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)
	accountID := c.Param("id")

	if err := h.accounts.Delete(ctx, userID, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			h.security.AccountAccessDenied(c.RealIP(), userID, accountID)
		}
		return respondError(c, h.logger, "failed to delete account", err)
	}

	if h.folders != nil {
		if err := h.folders.Forget(ctx, userID, accountID); err != nil {
			h.logger.Warn("failed to clear folder mappings", slog.String("account_id", accountID), slog.String("error", err.Error()))
		}
	}

	h.logger.Info("account disconnected", slog.String("user_id", userID), slog.String("account_id", accountID))
	return response.NoContent(c)
}
