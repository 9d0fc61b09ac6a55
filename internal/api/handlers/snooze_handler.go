package handlers

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
)

// SnoozeHandler handles snoozed messages
type SnoozeHandler struct {
	accounts repository.AccountRepository
	snoozes  repository.SnoozeRepository
	security *logger.SecurityLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewSnoozeHandler creates a new SnoozeHandler
func NewSnoozeHandler(accounts repository.AccountRepository, snoozes repository.SnoozeRepository, security *logger.SecurityLogger, log *slog.Logger) *SnoozeHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &SnoozeHandler{accounts: accounts, snoozes: snoozes, security: security, logger: log, now: time.Now}
}

// CreateSnoozeRequest represents the body of POST /api/snoozes.
// FolderID is where the message returns when the snooze ends.
type CreateSnoozeRequest struct {
	AccountID   string    `json:"account_id"`
	MessageID   string    `json:"message_id"`
	FolderID    string    `json:"folder_id,omitempty"`
	SnoozeUntil time.Time `json:"snooze_until"`
}

// Create handles POST /api/snoozes
func (h *SnoozeHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	var req CreateSnoozeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.AccountID == "" || req.MessageID == "" {
		return response.BadRequest(c, "account_id and message_id are required")
	}
	if req.SnoozeUntil.IsZero() || !req.SnoozeUntil.After(h.now()) {
		return response.BadRequest(c, "snooze_until must be in the future")
	}

	if _, err := lookupAccount(c, h.accounts, h.security, req.AccountID); err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	snooze := &models.SnoozedEmail{
		UserID:      userID,
		AccountID:   req.AccountID,
		MessageID:   req.MessageID,
		FolderID:    req.FolderID,
		SnoozeUntil: req.SnoozeUntil.UTC(),
		Status:      models.StatusPending,
	}
	if err := h.snoozes.Create(ctx, snooze); err != nil {
		return respondError(c, h.logger, "failed to snooze message", err)
	}
	return response.Created(c, snooze)
}

// List handles GET /api/snoozes
func (h *SnoozeHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if !validStatusFilter(status) {
		return response.BadRequest(c, "invalid status filter")
	}
	limit, offset := validator.ValidatePagination(queryInt(c, "limit", validator.DefaultLimit), queryInt(c, "offset", 0))

	snoozes, total, err := h.snoozes.ListByUser(c.Request().Context(), middleware.UserID(c), status, limit, offset)
	if err != nil {
		return respondError(c, h.logger, "failed to list snoozes", err)
	}
	if snoozes == nil {
		snoozes = []models.SnoozedEmail{}
	}
	return response.Paginated(c, snoozes, total, limit, offset)
}

// Cancel handles DELETE /api/snoozes/:id
func (h *SnoozeHandler) Cancel(c echo.Context) error {
	if err := h.snoozes.Cancel(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, h.logger, "failed to cancel snooze", err)
	}
	return response.NoContent(c)
}
