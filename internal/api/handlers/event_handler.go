package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
)

// defaultCalendarID selects the account's primary calendar at the provider
const defaultCalendarID = "primary"

// EventHandler handles calendar events of a connected account
type EventHandler struct {
	accounts repository.AccountRepository
	client   provider.Client
	security *logger.SecurityLogger
	logger   *slog.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(accounts repository.AccountRepository, client provider.Client, security *logger.SecurityLogger, log *slog.Logger) *EventHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &EventHandler{accounts: accounts, client: client, security: security, logger: log}
}

// List handles GET /api/accounts/:id/events
func (h *EventHandler) List(c echo.Context) error {
	start, err := queryUnix(c, "start")
	if err != nil {
		return response.Error(c, err)
	}
	end, err := queryUnix(c, "end")
	if err != nil {
		return response.Error(c, err)
	}
	if start > 0 && end > 0 && end < start {
		return response.BadRequest(c, "end must not be before start")
	}

	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	events, err := h.client.ListEvents(c.Request().Context(), account.GrantID, provider.EventQuery{
		CalendarID: calendarID(c),
		Limit:      validator.ClampLimit(queryInt(c, "limit", validator.DefaultLimit)),
		Start:      start,
		End:        end,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to list events", translateProviderError(err))
	}
	if events == nil {
		events = []provider.Event{}
	}
	return response.Success(c, events)
}

// Create handles POST /api/accounts/:id/events
func (h *EventHandler) Create(c echo.Context) error {
	var req provider.Event
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	req.Title = validator.SanitizeString(req.Title, 1024)
	if req.Title == "" {
		return response.BadRequest(c, "title is required")
	}
	if req.When.StartTime <= 0 || req.When.EndTime <= req.When.StartTime {
		return response.BadRequest(c, "when.end_time must be after when.start_time")
	}
	for _, p := range req.Participants {
		if err := validator.ValidateEmail(p.Email); err != nil {
			return response.BadRequest(c, "invalid participant email")
		}
	}

	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	req.ID = ""
	event, err := h.client.CreateEvent(c.Request().Context(), account.GrantID, calendarID(c), req)
	if err != nil {
		return respondError(c, h.logger, "failed to create event", translateProviderError(err))
	}
	return response.Created(c, event)
}

func calendarID(c echo.Context) string {
	if id := c.QueryParam("calendar_id"); id != "" {
		return id
	}
	return defaultCalendarID
}
