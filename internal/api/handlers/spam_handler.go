package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/mime"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/spam"
	"github.com/easemail/easemail-backend/internal/validator"
)

// MIMERFC822 is the content type of a raw message submitted for scoring
const MIMERFC822 = "message/rfc822"

// SpamHandler scores messages and manages reported senders
type SpamHandler struct {
	reports repository.SpamReportRepository
	logger  *slog.Logger
}

// NewSpamHandler creates a new SpamHandler
func NewSpamHandler(reports repository.SpamReportRepository, log *slog.Logger) *SpamHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SpamHandler{reports: reports, logger: log}
}

// ScoreRequest represents the JSON body of POST /api/spam/score
type ScoreRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

// ScoreResponse is the spam verdict for one message
type ScoreResponse struct {
	spam.Result
	Sender         string `json:"sender,omitempty"`
	SenderReported bool   `json:"sender_reported"`
}

// CreateReportRequest represents the body of POST /api/spam/reports
type CreateReportRequest struct {
	SenderEmail string `json:"sender_email"`
}

// Score handles POST /api/spam/score.
// The body is either JSON or a raw RFC 5322 message sent as message/rfc822.
func (h *SpamHandler) Score(c echo.Context) error {
	in, err := h.scoreInput(c)
	if err != nil {
		if errors.Is(err, mime.ErrMessageTooLarge) {
			return response.BadRequest(c, "message exceeds maximum size")
		}
		return response.BadRequest(c, err.Error())
	}
	if in.Subject == "" && in.Body == "" && in.Sender == "" {
		return response.BadRequest(c, "subject, body or sender is required")
	}

	if in.Sender != "" {
		reported, err := h.reports.IsReported(c.Request().Context(), middleware.UserID(c), in.Sender)
		if err != nil {
			return respondError(c, h.logger, "failed to check reported senders", err)
		}
		in.SenderReported = reported
	}

	return response.Success(c, ScoreResponse{
		Result:         spam.Score(in),
		Sender:         in.Sender,
		SenderReported: in.SenderReported,
	})
}

func (h *SpamHandler) scoreInput(c echo.Context) (spam.Input, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(strings.ToLower(contentType), MIMERFC822) {
		parsed, err := mime.Parse(c.Request().Body)
		if err != nil {
			if errors.Is(err, mime.ErrMessageTooLarge) {
				return spam.Input{}, err
			}
			return spam.Input{}, errors.New("invalid message: " + err.Error())
		}
		return spam.Input{
			Subject: parsed.Subject,
			Body:    parsed.Body(),
			Sender:  parsed.SenderEmail,
		}, nil
	}

	var req ScoreRequest
	if err := c.Bind(&req); err != nil {
		return spam.Input{}, errors.New("invalid request body")
	}
	return spam.Input{
		Subject: req.Subject,
		Body:    req.Body,
		Sender:  validator.NormalizeEmail(req.Sender),
	}, nil
}

// CreateReport handles POST /api/spam/reports.
// Reporting a sender twice returns the existing report.
func (h *SpamHandler) CreateReport(c echo.Context) error {
	var req CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validator.ValidateEmail(req.SenderEmail); err != nil {
		return response.BadRequest(c, "invalid sender_email")
	}

	report := &models.SpamReport{
		UserID:      middleware.UserID(c),
		SenderEmail: validator.NormalizeEmail(req.SenderEmail),
	}
	if err := h.reports.Create(c.Request().Context(), report); err != nil {
		return respondError(c, h.logger, "failed to report sender", err)
	}
	return response.Created(c, report)
}

// ListReports handles GET /api/spam/reports
func (h *SpamHandler) ListReports(c echo.Context) error {
	limit, offset := validator.ValidatePagination(queryInt(c, "limit", validator.DefaultLimit), queryInt(c, "offset", 0))

	reports, total, err := h.reports.ListByUser(c.Request().Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		return respondError(c, h.logger, "failed to list spam reports", err)
	}
	if reports == nil {
		reports = []models.SpamReport{}
	}
	return response.Paginated(c, reports, total, limit, offset)
}

// DeleteReport handles DELETE /api/spam/reports/:id
func (h *SpamHandler) DeleteReport(c echo.Context) error {
	if err := h.reports.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return respondError(c, h.logger, "failed to delete spam report", err)
	}
	return response.NoContent(c)
}
