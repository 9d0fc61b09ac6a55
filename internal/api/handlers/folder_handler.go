package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
)

// FolderHandler handles folder listing, sync and counts
type FolderHandler struct {
	accounts repository.AccountRepository
	client   provider.Client
	folders  FolderService
	security *logger.SecurityLogger
	logger   *slog.Logger
}

// NewFolderHandler creates a new FolderHandler
func NewFolderHandler(
	accounts repository.AccountRepository,
	client provider.Client,
	folders FolderService,
	security *logger.SecurityLogger,
	log *slog.Logger,
) *FolderHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &FolderHandler{accounts: accounts, client: client, folders: folders, security: security, logger: log}
}

// List handles GET /api/accounts/:id/folders.
// Folders come straight from the provider, not from the synced mappings.
func (h *FolderHandler) List(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	folders, err := h.client.ListFolders(c.Request().Context(), account.GrantID)
	if err != nil {
		return respondError(c, h.logger, "failed to list folders", translateProviderError(err))
	}
	if folders == nil {
		folders = []provider.Folder{}
	}
	return response.Success(c, folders)
}

// Sync handles POST /api/accounts/:id/folders/sync
func (h *FolderHandler) Sync(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	mappings, err := h.folders.Sync(c.Request().Context(), account)
	if err != nil {
		return respondError(c, h.logger, "failed to sync folders", translateProviderError(err))
	}
	if mappings == nil {
		mappings = []models.FolderMapping{}
	}
	return response.SuccessWithMessage(c, mappings, "folders synced")
}

// Counts handles GET /api/folders/counts
func (h *FolderHandler) Counts(c echo.Context) error {
	counts, err := h.folders.Counts(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, "failed to get folder counts", err)
	}
	return response.Success(c, counts)
}
