// Package backend talks to the community site's REST API. Every request
// carries the current bearer token, and a 401 ends the session.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nepalihub/portal/internal/domain"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	defaultTimeout = 30 * time.Second

	// SessionExpiredMessage is shown when the backend rejects the token
	SessionExpiredMessage = "Session expired. Please login again."
)

// TokenSource supplies the bearer token for outgoing requests
type TokenSource interface {
	Token() string
}

// SessionHandle ends the session when the backend rejects its token.
// Invalidate must be a no-op when token is no longer the current one.
type SessionHandle interface {
	Invalidate(token string) bool
}

// Config holds backend connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the authenticated HTTP client for the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	session    SessionHandle
	logger     *slog.Logger
	requestID  func() string
}

// NewClient creates a backend client. tokens and session may be nil for
// anonymous use.
func NewClient(cfg Config, tokens TokenSource, session SessionHandle, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens:    tokens,
		session:   session,
		logger:    logger,
		requestID: uuid.NewString,
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dest any) error {
	return c.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, dest)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload, dest any) error {
	req := request{op: op, method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return domain.WrapError(domain.KindValidation, op, fmt.Errorf("encode request: %w", err))
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, dest)
}

// do executes r and decodes a 2xx body into dest (when non-nil).
// Failures come back as *domain.Error.
func (c *Client) do(ctx context.Context, r request, dest any) error {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, r.body)
	if err != nil {
		return domain.WrapError(domain.KindTransient, r.op, fmt.Errorf("create request: %w", err))
	}

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := c.requestID()
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("backend request", "op", r.op, "method", r.method, "path", r.path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("backend request failed", "op", r.op, "error", err)
		return domain.WrapError(domain.KindTransient, r.op, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(domain.KindTransient, r.op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		classified := classifyResponse(r.op, resp.StatusCode, body, token != "")
		if classified.Kind == domain.KindUnauthorized && token != "" && c.session != nil {
			if c.session.Invalidate(token) {
				c.logger.Info("Session rejected by backend, logged out", "op", r.op)
			}
		}
		c.logger.Error("backend request error",
			"op", r.op,
			"status", resp.StatusCode,
			"kind", classified.Kind.String(),
			"message", classified.Message,
			"request_id", requestID,
		)
		return classified
	}

	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return domain.WrapError(domain.KindTransient, r.op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// classifyResponse maps a non-2xx response to a classified error.
// A 401 on an authenticated request always reads as an expired session;
// on an anonymous request (a login) the server's own detail is kept.
func classifyResponse(op string, status int, body []byte, authenticated bool) *domain.Error {
	detail := parseDetail(body)
	if detail == "" {
		detail = http.StatusText(status)
	}

	e := &domain.Error{Op: op, Status: status, Message: detail}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = domain.KindUnauthorized
		if authenticated {
			e.Message = SessionExpiredMessage
		}
	case status == http.StatusForbidden:
		e.Kind = domain.KindForbidden
	case status == http.StatusNotFound:
		e.Kind = domain.KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = domain.KindValidation
	default:
		e.Kind = domain.KindTransient
		e.Message = fmt.Sprintf("Request failed (%d): %s", status, detail)
	}
	return e
}

// errorBody is the FastAPI error envelope. detail is either a string or a
// list of field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var fields []fieldError
	if err := json.Unmarshal(eb.Detail, &fields); err != nil {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f.Loc) > 0 {
			parts = append(parts, fmt.Sprintf("%v: %s", f.Loc[len(f.Loc)-1], f.Msg))
		} else {
			parts = append(parts, f.Msg)
		}
	}
	return strings.Join(parts, "; ")
}

// messageResponse is returned by action endpoints
type messageResponse struct {
	Message string `json:"message"`
}
