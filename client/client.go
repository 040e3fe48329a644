// Package client is a typed client for the job tracker REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/logger"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New returns a client for the API at baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithSession returns a client that authenticates as s. The HTTP transport
// is shared.
func (c *Client) WithSession(s *Session) *Client {
	clone := *c
	clone.session = s
	return &clone
}

func (c *Client) Session() *Session {
	return c.session
}

type contextKey string

const forwardedForKey contextKey = "forwarded_for"

// WithForwardedFor makes requests sent with ctx carry ip as X-Forwarded-For,
// so the API sees the end user rather than the proxying UI.
func WithForwardedFor(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, forwardedForKey, ip)
}

type RegisterResult struct {
	Message  string `json:"message"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type LoginResult struct {
	Token     string `json:"token"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expires_at"`
}

type messageResult struct {
	Message string `json:"message"`
}

// do sends one request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// send returns the response of a successful request; the caller closes it.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id, ok := ctx.Value(logger.RequestIDKey).(string); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if ip, ok := ctx.Value(forwardedForKey).(string); ok && ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn(ctx, "backend unreachable", "method", method, "path", path, "error", err)
		return nil, &UnreachableError{Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload messageResult
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.session.expired()
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	var out RegisterResult
	err := c.doJSON(ctx, http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and, on success, starts the client's session.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.session.Begin(out.Token)
	return &out, nil
}

// Logout ends the session locally; the backend keeps no session state.
func (c *Client) Logout() {
	c.session.End()
}

func (c *Client) ListApplications(ctx context.Context) ([]model.Application, error) {
	var out []model.Application
	if err := c.doJSON(ctx, http.MethodGet, "/applications", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Application{}
	}
	return out, nil
}

func (c *Client) GetApplication(ctx context.Context, id int64) (*model.Application, error) {
	var out model.Application
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/applications/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateApplication(ctx context.Context, p ApplicationPayload) (*model.Application, error) {
	return c.submit(ctx, http.MethodPost, "/applications", p)
}

func (c *Client) UpdateApplication(ctx context.Context, id int64, p ApplicationPayload) (*model.Application, error) {
	return c.submit(ctx, http.MethodPut, fmt.Sprintf("/applications/%d", id), p)
}

func (c *Client) submit(ctx context.Context, method, path string, p ApplicationPayload) (*model.Application, error) {
	body, contentType, err := BuildApplicationForm(p)
	if err != nil {
		return nil, err
	}
	var out model.Application
	if err := c.do(ctx, method, path, body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Application, error) {
	var out model.Application
	err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/applications/%d/status", id), map[string]string{
		"status": string(status),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteApplication(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/applications/%d", id), nil, nil)
}

// DownloadCV streams a CV; the caller closes the returned reader.
func (c *Client) DownloadCV(ctx context.Context, filename string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, http.MethodGet, "/uploads/"+url.PathEscape(filename), nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var out model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
