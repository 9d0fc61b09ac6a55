package response

import (
	"errors"
	"net/http"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/labstack/echo/v4"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

const productionKey = "response.production"

// Production records the deployment mode on every request. Error and
// InternalError drop internal details when it is true.
func Production(production bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(productionKey, production)
			return next(c)
		}
	}
}

// Success returns a successful response with data
func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Created returns a 201 Created response
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

// NoContent returns a 204 No Content response
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Paginated returns a paginated response
func Paginated(c echo.Context, data interface{}, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta: Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response with appropriate status code.
// Internal errors only carry the underlying message outside production.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	status := getHTTPStatus(code)

	message := err.Error()
	if code == apperrors.CodeInternalError && isProduction(c) {
		message = "internal server error"
	}

	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInvalidInput,
	})
}

// InternalError returns a 500 Internal Server Error response.
// cause is appended to the message outside production.
func InternalError(c echo.Context, message string, cause error) error {
	if cause != nil && !isProduction(c) {
		message = message + ": " + cause.Error()
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInternalError,
	})
}

// HTTPErrorHandler renders errors returned by middleware and unmatched routes
// in the same {success, error, code} shape as handler responses.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		body := ErrorResponse{Success: false, Code: codeForStatus(he.Code)}
		switch msg := he.Message.(type) {
		case string:
			body.Error = msg
		case map[string]string:
			body.Error = msg["error"]
			if msg["code"] != "" {
				body.Code = msg["code"]
			}
		default:
			body.Error = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, body)
		return
	}

	_ = Error(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperrors.CodeInvalidInput
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case http.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	default:
		return apperrors.CodeInternalError
	}
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code string) int {
	switch code {
	case apperrors.CodeNotFound, apperrors.CodeFolderNotFound:
		return http.StatusNotFound
	case apperrors.CodeDuplicateEntry, apperrors.CodeNotPending:
		return http.StatusConflict
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isProduction(c echo.Context) bool {
	production, _ := c.Get(productionKey).(bool)
	return production
}
