package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// HTTPClient implements Client against the provider's v3 REST API.
// Each grant has its own circuit breaker so one failing account never
// blocks requests for the others.
type HTTPClient struct {
	baseURL    string
	http       *http.Client
	cbSettings gobreaker.Settings
	logger     *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewHTTPClient creates a client that authenticates every request with the API key.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout

	cbSettings := gobreaker.Settings{
		Name:        "email-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// Client-side failures must not open the circuit.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var pe *Error
			if errors.As(err, &pe) {
				return !pe.Retryable()
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       httpClient,
		cbSettings: cbSettings,
		logger:     logger,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breaker returns the circuit breaker of grantID, creating it on first use.
func (c *HTTPClient) breaker(grantID string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[grantID]
	if !ok {
		settings := c.cbSettings
		settings.Name = "email-provider:" + grantID
		cb = gobreaker.NewCircuitBreaker(settings)
		c.breakers[grantID] = cb
	}
	return cb
}

// envelope is the provider's response wrapper.
type envelope struct {
	RequestID  string          `json:"request_id"`
	Data       json.RawMessage `json:"data"`
	NextCursor string          `json:"next_cursor"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func grantPath(grantID string, parts ...string) string {
	segs := []string{"/v3/grants", url.PathEscape(grantID)}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}

// ListMessages returns one page of messages, newest first.
func (c *HTTPClient) ListMessages(ctx context.Context, grantID string, q MessageQuery) (*MessagePage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.FolderIDs) > 0 {
		params.Set("in", strings.Join(q.FolderIDs, ","))
	}
	if q.PageToken != "" {
		params.Set("page_token", q.PageToken)
	}
	if q.Unread != nil {
		params.Set("unread", strconv.FormatBool(*q.Unread))
	}

	env, err := c.do(ctx, "ListMessages", grantID, http.MethodGet, grantPath(grantID, "messages"), params, nil)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{NextCursor: env.NextCursor}
	if err := decodeData(env, &page.Data); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []Message{}
	}
	return page, nil
}

// GetMessage returns a single message including its body.
func (c *HTTPClient) GetMessage(ctx context.Context, grantID, messageID string) (*Message, error) {
	env, err := c.do(ctx, "GetMessage", grantID, http.MethodGet, grantPath(grantID, "messages", messageID), nil, nil)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := decodeData(env, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateMessage changes read, starred or folder state.
func (c *HTTPClient) UpdateMessage(ctx context.Context, grantID, messageID string, update MessageUpdate) (*Message, error) {
	env, err := c.do(ctx, "UpdateMessage", grantID, http.MethodPut, grantPath(grantID, "messages", messageID), nil, update)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := decodeData(env, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage moves a message to trash.
func (c *HTTPClient) DeleteMessage(ctx context.Context, grantID, messageID string) error {
	_, err := c.do(ctx, "DeleteMessage", grantID, http.MethodDelete, grantPath(grantID, "messages", messageID), nil, nil)
	return err
}

// SendMessage sends immediately and returns the sent message.
func (c *HTTPClient) SendMessage(ctx context.Context, grantID string, req SendRequest) (*Message, error) {
	env, err := c.do(ctx, "SendMessage", grantID, http.MethodPost, grantPath(grantID, "messages", "send"), nil, req)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := decodeData(env, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListFolders returns every folder of the grant.
func (c *HTTPClient) ListFolders(ctx context.Context, grantID string) ([]Folder, error) {
	env, err := c.do(ctx, "ListFolders", grantID, http.MethodGet, grantPath(grantID, "folders"), nil, nil)
	if err != nil {
		return nil, err
	}
	folders := []Folder{}
	if err := decodeData(env, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// ListContacts returns up to limit contacts.
func (c *HTTPClient) ListContacts(ctx context.Context, grantID string, limit int) ([]Contact, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	env, err := c.do(ctx, "ListContacts", grantID, http.MethodGet, grantPath(grantID, "contacts"), params, nil)
	if err != nil {
		return nil, err
	}
	contacts := []Contact{}
	if err := decodeData(env, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// CreateContact adds a contact to the grant's address book.
func (c *HTTPClient) CreateContact(ctx context.Context, grantID string, contact Contact) (*Contact, error) {
	env, err := c.do(ctx, "CreateContact", grantID, http.MethodPost, grantPath(grantID, "contacts"), nil, contact)
	if err != nil {
		return nil, err
	}
	var created Contact
	if err := decodeData(env, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListEvents returns events of one calendar.
func (c *HTTPClient) ListEvents(ctx context.Context, grantID string, q EventQuery) ([]Event, error) {
	params := url.Values{}
	params.Set("calendar_id", q.CalendarID)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Start > 0 {
		params.Set("start", strconv.FormatInt(q.Start, 10))
	}
	if q.End > 0 {
		params.Set("end", strconv.FormatInt(q.End, 10))
	}
	env, err := c.do(ctx, "ListEvents", grantID, http.MethodGet, grantPath(grantID, "events"), params, nil)
	if err != nil {
		return nil, err
	}
	events := []Event{}
	if err := decodeData(env, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateEvent creates an event in the given calendar.
func (c *HTTPClient) CreateEvent(ctx context.Context, grantID, calendarID string, event Event) (*Event, error) {
	params := url.Values{}
	params.Set("calendar_id", calendarID)
	env, err := c.do(ctx, "CreateEvent", grantID, http.MethodPost, grantPath(grantID, "events"), params, event)
	if err != nil {
		return nil, err
	}
	var created Event
	if err := decodeData(env, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// do runs one request through the grant's circuit breaker and decodes the envelope.
func (c *HTTPClient) do(ctx context.Context, operation, grantID, method, path string, params url.Values, body interface{}) (*envelope, error) {
	result, err := c.breaker(grantID).Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, path, params, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &Error{Kind: KindUnavailable, Message: "provider circuit open", Err: err}
		}
		c.logger.Warn("provider request failed",
			slog.String("operation", operation),
			slog.String("kind", string(KindOf(err))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return result.(*envelope), nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, params url.Values, body interface{}) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindUnavailable, Message: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	env := &envelope{}
	if resp.StatusCode == http.StatusNoContent {
		return env, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return env, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := http.StatusText(resp.StatusCode)
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		message = env.Error.Message
	}

	return &Error{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Message: message,
	}
}

func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Message: fmt.Sprintf("malformed data: %v", err), Err: err}
	}
	return nil
}
