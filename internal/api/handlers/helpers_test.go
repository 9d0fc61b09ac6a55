package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/api/middleware"
	"github.com/easemail/easemail-backend/internal/api/response"
	"github.com/easemail/easemail-backend/internal/models"
)

const testUserID = "user-1"

// newTestContext builds an authenticated echo context. params alternates name, value.
func newTestContext(e *echo.Echo, method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.UserIDKey, testUserID)

	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

// testAccount creates an account owned by testUserID
func testAccount(id, email string) *models.EmailAccount {
	now := time.Now()
	return &models.EmailAccount{
		ID:           id,
		UserID:       testUserID,
		Provider:     "google",
		EmailAddress: email,
		GrantID:      "grant-" + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// parseAPIResponse parses the API response from the recorder
func parseAPIResponse(rec *httptest.ResponseRecorder) (*response.APIResponse, error) {
	var resp response.APIResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	return &resp, err
}

// parseErrorResponse parses the error response from the recorder
func parseErrorResponse(rec *httptest.ResponseRecorder) (*response.ErrorResponse, error) {
	var resp response.ErrorResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	return &resp, err
}

// decodeData re-decodes the data field of a success response into out
func decodeData(rec *httptest.ResponseRecorder, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		return err
	}
	return json.Unmarshal(envelope.Data, out)
}
