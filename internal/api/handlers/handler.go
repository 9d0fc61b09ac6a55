// Package handlers implements the EaseMail HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/easemail/easemail-backend/internal/logger"
	"github.com/easemail/easemail-backend/internal/mailbox"
	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/scheduler"
)

// FolderService syncs folder mappings and serves folder counts.
type FolderService interface {
	Sync(ctx context.Context, account *models.EmailAccount) ([]models.FolderMapping, error)
	Counts(ctx context.Context, userID string) ([]models.FolderCount, error)
	Forget(ctx context.Context, userID, accountID string) error
}

// MailboxService lists messages across one or all of a user's accounts.
type MailboxService interface {
	List(ctx context.Context, q mailbox.Query) (*mailbox.Page, error)
	ListAccount(ctx context.Context, q mailbox.AccountQuery) (*mailbox.AccountPage, error)
}

// DeliveryProcessor moves due scheduled emails and snoozes to a terminal status.
type DeliveryProcessor interface {
	ProcessScheduled(ctx context.Context, now time.Time) (*scheduler.BatchResult, error)
	ProcessSnoozed(ctx context.Context, now time.Time) (*scheduler.BatchResult, error)
}

// translateProviderError maps a provider failure onto the application error
// taxonomy so the response layer picks the right status.
func translateProviderError(err error) error {
	var pe *provider.Error
	if !errors.As(err, &pe) {
		return apperrors.External("provider", err)
	}

	switch pe.Kind {
	case provider.KindNotFound:
		return apperrors.ErrNotFound
	case provider.KindRateLimit:
		return apperrors.NewAppError(apperrors.ErrRateLimited, "email provider rate limit reached, retry later", apperrors.CodeRateLimited)
	case provider.KindBadRequest:
		msg := "email provider rejected the request"
		if pe.Message != "" {
			msg = msg + ": " + pe.Message
		}
		return apperrors.NewAppError(apperrors.ErrInvalidInput, msg, apperrors.CodeInvalidInput)
	case provider.KindAuth:
		return apperrors.NewAppError(
			apperrors.External("provider", err),
			"email account authorization expired; reconnect the account",
			apperrors.CodeExternalService,
		)
	default:
		return apperrors.External("provider", err)
	}
}

// ownedAccount loads the account named by the :id path parameter for the
// authenticated user. Another user's account is reported as not found.
func ownedAccount(c echo.Context, accounts repository.AccountRepository, security *logger.SecurityLogger) (*models.EmailAccount, error) {
	return lookupAccount(c, accounts, security, c.Param("id"))
}

// lookupAccount loads accountID for the authenticated user and records
// attempts to reach accounts the user does not own.
func lookupAccount(c echo.Context, accounts repository.AccountRepository, security *logger.SecurityLogger, accountID string) (*models.EmailAccount, error) {
	userID := middleware.UserID(c)
	if accountID == "" {
		return nil, invalidInput("account id is required")
	}

	account, err := accounts.GetForUser(c.Request().Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			security.AccountAccessDenied(c.RealIP(), userID, accountID)
		}
		return nil, err
	}
	return account, nil
}

// queryInt parses an integer query parameter, returning def when it is absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, name+" must be true or false", apperrors.CodeInvalidInput)
	}
	return &v, nil
}

// queryUnix parses a unix-seconds query parameter, returning 0 when absent.
func queryUnix(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidInput, name+" must be a unix timestamp", apperrors.CodeInvalidInput)
	}
	return v, nil
}

func invalidInput(msg string) error {
	return apperrors.NewAppError(apperrors.ErrInvalidInput, msg, apperrors.CodeInvalidInput)
}

// respondError renders err. Failures that surface as 5xx are logged with msg.
func respondError(c echo.Context, log *slog.Logger, msg string, err error) error {
	switch apperrors.GetErrorCode(err) {
	case apperrors.CodeInternalError:
		log.Error(msg, slog.String("error", err.Error()), slog.String("user_id", middleware.UserID(c)))
		return response.InternalError(c, msg, err)
	case apperrors.CodeExternalService:
		log.Warn(msg, slog.String("error", err.Error()), slog.String("user_id", middleware.UserID(c)))
	}
	return response.Error(c, err)
}
