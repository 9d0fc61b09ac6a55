package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/easemail/easemail-backend/internal/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func TestSuccess_Returns200WithData(t *testing.T) {
	c, rec := setupTestContext()

	err := Success(c, map[string]string{"key": "value"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestCreated_Returns201WithData(t *testing.T) {
	c, rec := setupTestContext()

	err := Created(c, map[string]string{"id": "abc"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNoContent_Returns204(t *testing.T) {
	c, rec := setupTestContext()

	require.NoError(t, NoContent(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPaginated_ReturnsDataWithMeta(t *testing.T) {
	c, rec := setupTestContext()

	err := Paginated(c, []string{"a", "b"}, 10, 2, 4)
	require.NoError(t, err)

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(10), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Limit)
	assert.Equal(t, 4, resp.Meta.Offset)
}

func TestError_ReturnsCorrectStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrAccountNotFound, http.StatusNotFound, apperrors.CodeNotFound},
		{"folder not found", apperrors.ErrFolderNotFound, http.StatusNotFound, apperrors.CodeFolderNotFound},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"duplicate", apperrors.ErrDuplicateEntry, http.StatusConflict, apperrors.CodeDuplicateEntry},
		{"not pending", apperrors.ErrNotPending, http.StatusConflict, apperrors.CodeNotPending},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, apperrors.CodeForbidden},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, apperrors.CodeRateLimited},
		{"external", apperrors.External("provider", errors.New("boom")), http.StatusBadGateway, apperrors.CodeExternalService},
		{"internal", errors.New("db exploded"), http.StatusInternalServerError, apperrors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := setupTestContext()

			require.NoError(t, Error(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func productionContext(production bool) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := setupTestContext()
	_ = Production(production)(func(echo.Context) error { return nil })(c)
	return c, rec
}

func TestError_HidesInternalMessageInProduction(t *testing.T) {
	c, rec := productionContext(true)
	require.NoError(t, Error(c, errors.New("pq: relation does not exist")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation does not exist")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestError_IgnoresAppEnvWithoutMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	c, rec := setupTestContext()
	require.NoError(t, Error(c, errors.New("pq: relation does not exist")))

	assert.Contains(t, rec.Body.String(), "relation does not exist")
}

func TestInternalError_IncludesCauseOutsideProduction(t *testing.T) {
	c, rec := productionContext(false)
	require.NoError(t, InternalError(c, "failed to list accounts", errors.New("connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to list accounts: connection refused")
}

func TestInternalError_OmitsCauseInProduction(t *testing.T) {
	c, rec := productionContext(true)
	require.NoError(t, InternalError(c, "failed to list accounts", errors.New("connection refused")))

	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestProduction_AppliesToHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(Production(true))
	e.GET("/boom", func(echo.Context) error { return errors.New("dial tcp 10.0.0.5:5432: refused") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestHTTPErrorHandler_RendersMiddlewareErrors(t *testing.T) {
	c, rec := setupTestContext()

	HTTPErrorHandler(echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
		"error": "missing authorization header",
		"code":  "UNAUTHORIZED",
	}), c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing authorization header", resp.Error)
	assert.Equal(t, apperrors.CodeUnauthorized, resp.Code)
}

func TestHTTPErrorHandler_RouteNotFound(t *testing.T) {
	c, rec := setupTestContext()

	HTTPErrorHandler(echo.ErrNotFound, c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestGetHTTPStatus_MapsCodesCorrectly(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, getHTTPStatus(apperrors.CodeNotFound))
	assert.Equal(t, http.StatusBadGateway, getHTTPStatus(apperrors.CodeExternalService))
	assert.Equal(t, http.StatusTooManyRequests, getHTTPStatus(apperrors.CodeRateLimited))
	assert.Equal(t, http.StatusInternalServerError, getHTTPStatus("SOMETHING_ELSE"))
}
