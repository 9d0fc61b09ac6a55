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

// maxScheduleAhead bounds how far in the future a send may be scheduled
const maxScheduleAhead = 365 * 24 * time.Hour

// ScheduledEmailHandler handles scheduled sends
type ScheduledEmailHandler struct {
	accounts  repository.AccountRepository
	scheduled repository.ScheduledEmailRepository
	security  *logger.SecurityLogger
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduledEmailHandler creates a new ScheduledEmailHandler
func NewScheduledEmailHandler(
	accounts repository.AccountRepository,
	scheduled repository.ScheduledEmailRepository,
	security *logger.SecurityLogger,
	log *slog.Logger,
) *ScheduledEmailHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &ScheduledEmailHandler{
		accounts:  accounts,
		scheduled: scheduled,
		security:  security,
		logger:    log,
		now:       time.Now,
	}
}

// CreateScheduledEmailRequest represents the body of POST /api/scheduled-emails
type CreateScheduledEmailRequest struct {
	AccountID    string             `json:"account_id"`
	To           []models.Recipient `json:"to"`
	Cc           []models.Recipient `json:"cc,omitempty"`
	Subject      string             `json:"subject"`
	Body         string             `json:"body"`
	ScheduledFor time.Time          `json:"scheduled_for"`
}

// Create handles POST /api/scheduled-emails
func (h *ScheduledEmailHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID := middleware.UserID(c)

	var req CreateScheduledEmailRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.AccountID == "" {
		return response.BadRequest(c, "account_id is required")
	}
	if err := validator.ValidateRecipients(recipientAddresses(req.To), recipientAddresses(req.Cc)); err != nil {
		return response.BadRequest(c, err.Error())
	}

	now := h.now()
	if req.ScheduledFor.IsZero() || !req.ScheduledFor.After(now) {
		return response.BadRequest(c, "scheduled_for must be in the future")
	}
	if req.ScheduledFor.After(now.Add(maxScheduleAhead)) {
		return response.BadRequest(c, "scheduled_for is too far in the future")
	}

	if _, err := lookupAccount(c, h.accounts, h.security, req.AccountID); err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	email := &models.ScheduledEmail{
		UserID:       userID,
		AccountID:    req.AccountID,
		To:           normalizeRecipients(req.To),
		Cc:           normalizeRecipients(req.Cc),
		Subject:      validator.SanitizeString(req.Subject, 998),
		Body:         req.Body,
		ScheduledFor: req.ScheduledFor.UTC(),
		Status:       models.StatusPending,
	}
	if err := h.scheduled.Create(ctx, email); err != nil {
		return respondError(c, h.logger, "failed to schedule email", err)
	}

	h.logger.Info("email scheduled",
		slog.String("user_id", userID),
		slog.String("scheduled_email_id", email.ID),
		slog.Time("scheduled_for", email.ScheduledFor),
	)
	return response.Created(c, email)
}

// List handles GET /api/scheduled-emails
func (h *ScheduledEmailHandler) List(c echo.Context) error {
	status := c.QueryParam("status")
	if !validStatusFilter(status) {
		return response.BadRequest(c, "invalid status filter")
	}
	limit, offset := validator.ValidatePagination(queryInt(c, "limit", validator.DefaultLimit), queryInt(c, "offset", 0))

	emails, total, err := h.scheduled.ListByUser(c.Request().Context(), middleware.UserID(c), status, limit, offset)
	if err != nil {
		return respondError(c, h.logger, "failed to list scheduled emails", err)
	}
	if emails == nil {
		emails = []models.ScheduledEmail{}
	}
	return response.Paginated(c, emails, total, limit, offset)
}

// Cancel handles DELETE /api/scheduled-emails/:id.
// Only pending sends can be cancelled.
func (h *ScheduledEmailHandler) Cancel(c echo.Context) error {
	if err := h.scheduled.Cancel(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, h.logger, "failed to cancel scheduled email", err)
	}
	return response.NoContent(c)
}

func validStatusFilter(status string) bool {
	switch status {
	case "", models.StatusPending, models.StatusSent, models.StatusFailed, models.StatusCancelled:
		return true
	default:
		return false
	}
}

func recipientAddresses(recipients []models.Recipient) []string {
	out := make([]string, len(recipients))
	for i, r := range recipients {
		out[i] = r.Email
	}
	return out
}

func normalizeRecipients(recipients []models.Recipient) []models.Recipient {
	if len(recipients) == 0 {
		return nil
	}
	out := make([]models.Recipient, len(recipients))
	for i, r := range recipients {
		out[i] = models.Recipient{
			Name:  validator.SanitizeString(r.Name, 255),
			Email: validator.NormalizeEmail(r.Email),
		}
	}
	return out
}
