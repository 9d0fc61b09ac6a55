package handlers

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
)

// ContactHandler handles the address book of a connected account
type ContactHandler struct {
	accounts repository.AccountRepository
	client   provider.Client
	security *logger.SecurityLogger
	logger   *slog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(accounts repository.AccountRepository, client provider.Client, security *logger.SecurityLogger, log *slog.Logger) *ContactHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &ContactHandler{accounts: accounts, client: client, security: security, logger: log}
}

// List handles GET /api/accounts/:id/contacts
func (h *ContactHandler) List(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	limit := validator.ClampLimit(queryInt(c, "limit", validator.DefaultLimit))
	contacts, err := h.client.ListContacts(c.Request().Context(), account.GrantID, limit)
	if err != nil {
		return respondError(c, h.logger, "failed to list contacts", translateProviderError(err))
	}
	if contacts == nil {
		contacts = []provider.Contact{}
	}
	return response.Success(c, contacts)
}

// Create handles POST /api/accounts/:id/contacts
func (h *ContactHandler) Create(c echo.Context) error {
	var req provider.Contact
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	contact, err := normalizeContact(req)
	if err != nil {
		return response.Error(c, err)
	}

	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	created, err := h.client.CreateContact(c.Request().Context(), account.GrantID, contact)
	if err != nil {
		return respondError(c, h.logger, "failed to create contact", translateProviderError(err))
	}
	return response.Created(c, created)
}

// normalizeContact validates addresses and regroups phone numbers.
// Numbers with no digits are dropped.
func normalizeContact(in provider.Contact) (provider.Contact, error) {
	out := in
	out.ID = ""
	out.GivenName = validator.SanitizeString(in.GivenName, 255)
	out.Surname = validator.SanitizeString(in.Surname, 255)
	out.CompanyName = validator.SanitizeString(in.CompanyName, 255)

	if out.GivenName == "" && out.Surname == "" && len(in.Emails) == 0 {
		return out, invalidInput("a contact needs a name or an email address")
	}

	out.Emails = make([]provider.ContactEmail, 0, len(in.Emails))
	for _, e := range in.Emails {
		if err := validator.ValidateEmail(e.Email); err != nil {
			return out, invalidInput("invalid contact email: " + strings.TrimSpace(e.Email))
		}
		out.Emails = append(out.Emails, provider.ContactEmail{Email: validator.NormalizeEmail(e.Email), Type: e.Type})
	}

	out.PhoneNumbers = make([]provider.PhoneNumber, 0, len(in.PhoneNumbers))
	for _, p := range in.PhoneNumbers {
		number := validator.FormatPhoneNumber(p.Number)
		if number == "" {
			continue
		}
		out.PhoneNumbers = append(out.PhoneNumbers, provider.PhoneNumber{Number: number, Type: p.Type})
	}
	return out, nil
}
