package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/mailbox"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/validator"
)

// MessageHandler handles message listing and per-message operations
type MessageHandler struct {
	mailbox  MailboxService
	accounts repository.AccountRepository
	client   provider.Client
	security *logger.SecurityLogger
	logger   *slog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	mb MailboxService,
	accounts repository.AccountRepository,
	client provider.Client,
	security *logger.SecurityLogger,
	log *slog.Logger,
) *MessageHandler {
	if log == nil {
		log = slog.Default()
	}
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(slog.DiscardHandler)
	}
	return &MessageHandler{mailbox: mb, accounts: accounts, client: client, security: security, logger: log}
}

// UpdateMessageRequest represents the body of PATCH /api/accounts/:id/messages/:message_id
type UpdateMessageRequest struct {
	Unread  *bool    `json:"unread,omitempty"`
	Starred *bool    `json:"starred,omitempty"`
	Folders []string `json:"folders,omitempty"`
}

// SendMessageRequest represents the body of POST /api/accounts/:id/messages/send
type SendMessageRequest struct {
	To      []provider.Participant `json:"to"`
	Cc      []provider.Participant `json:"cc,omitempty"`
	Bcc     []provider.Participant `json:"bcc,omitempty"`
	Subject string                 `json:"subject"`
	Body    string                 `json:"body"`
	ReplyTo string                 `json:"reply_to_message_id,omitempty"`
}

// Unified handles GET /api/messages.
// Accounts that fail are reported in the payload rather than failing the request.
func (h *MessageHandler) Unified(c echo.Context) error {
	unread, err := queryBool(c, "unread")
	if err != nil {
		return response.Error(c, err)
	}

	page, err := h.mailbox.List(c.Request().Context(), mailbox.Query{
		UserID: middleware.UserID(c),
		Limit:  queryInt(c, "limit", validator.DefaultLimit),
		Folder: c.QueryParam("folder"),
		Cursor: c.QueryParam("cursor"),
		Unread: unread,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to list messages", err)
	}
	return response.Success(c, page)
}

// ListAccount handles GET /api/accounts/:id/messages
func (h *MessageHandler) ListAccount(c echo.Context) error {
	unread, err := queryBool(c, "unread")
	if err != nil {
		return response.Error(c, err)
	}

	page, err := h.mailbox.ListAccount(c.Request().Context(), mailbox.AccountQuery{
		UserID:    middleware.UserID(c),
		AccountID: c.Param("id"),
		Limit:     queryInt(c, "limit", validator.DefaultLimit),
		Folder:    c.QueryParam("folder"),
		PageToken: c.QueryParam("page_token"),
		Unread:    unread,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to list messages", err)
	}
	return response.Success(c, page)
}

// Get handles GET /api/accounts/:id/messages/:message_id
func (h *MessageHandler) Get(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	msg, err := h.client.GetMessage(c.Request().Context(), account.GrantID, c.Param("message_id"))
	if err != nil {
		return respondError(c, h.logger, "failed to get message", translateProviderError(err))
	}
	return response.Success(c, msg)
}

// Update handles PATCH /api/accounts/:id/messages/:message_id
func (h *MessageHandler) Update(c echo.Context) error {
	var req UpdateMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Unread == nil && req.Starred == nil && req.Folders == nil {
		return response.BadRequest(c, "nothing to update")
	}

	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	msg, err := h.client.UpdateMessage(c.Request().Context(), account.GrantID, c.Param("message_id"), provider.MessageUpdate{
		Unread:  req.Unread,
		Starred: req.Starred,
		Folders: req.Folders,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to update message", translateProviderError(err))
	}
	return response.Success(c, msg)
}

// Delete handles DELETE /api/accounts/:id/messages/:message_id
func (h *MessageHandler) Delete(c echo.Context) error {
	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	if err := h.client.DeleteMessage(c.Request().Context(), account.GrantID, c.Param("message_id")); err != nil {
		return respondError(c, h.logger, "failed to delete message", translateProviderError(err))
	}
	return response.NoContent(c)
}

// Send handles POST /api/accounts/:id/messages/send
func (h *MessageHandler) Send(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validator.ValidateRecipients(addresses(req.To), append(addresses(req.Cc), addresses(req.Bcc)...)); err != nil {
		return response.BadRequest(c, err.Error())
	}

	account, err := ownedAccount(c, h.accounts, h.security)
	if err != nil {
		return respondError(c, h.logger, "failed to get account", err)
	}

	sent, err := h.client.SendMessage(c.Request().Context(), account.GrantID, provider.SendRequest{
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		Subject: validator.SanitizeString(req.Subject, 998),
		Body:    req.Body,
		ReplyTo: req.ReplyTo,
	})
	if err != nil {
		return respondError(c, h.logger, "failed to send message", translateProviderError(err))
	}

	h.logger.Info("message sent",
		slog.String("user_id", account.UserID),
		slog.String("account_id", account.ID),
		slog.Int("recipients", len(req.To)+len(req.Cc)+len(req.Bcc)),
	)
	return response.Created(c, sent)
}

func addresses(participants []provider.Participant) []string {
	out := make([]string, len(participants))
	for i, p := range participants {
		out[i] = p.Email
	}
	return out
}
