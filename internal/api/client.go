// Package api talks to the remote task tracker REST API.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/taskdesk/internal/models"
)

// maxErrorBody caps how much of a failed response body is kept in an Error
const maxErrorBody = 4 << 10

// Client is a thin wrapper over the REST endpoints. It is safe for use from
// concurrent tea.Cmd goroutines.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the access token sent with authenticated requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current access token, empty when logged out
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token pair and keeps the access token
func (c *Client) Login(ctx context.Context, cred models.Credential) (models.JWT, error) {
	var tok models.JWT
	if err := c.do(ctx, http.MethodPost, "/authen/jwt/create/", cred, &tok); err != nil {
		return models.JWT{}, err
	}
	c.SetToken(tok.Access)
	return tok, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, cred models.Credential) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodPost, "/api/register/", cred, &u)
	return u, err
}

// LoginUser returns the account behind the current token
func (c *Client) LoginUser(ctx context.Context) (models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodGet, "/api/loginuser/", nil, &u)
	return u, err
}

// CreateProfile creates an empty profile for the current account
func (c *Client) CreateProfile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodPost, "/api/profile/", map[string]any{"img": nil}, &p)
	return p, err
}

// Profiles lists all profiles
func (c *Client) Profiles(ctx context.Context) ([]models.Profile, error) {
	var ps []models.Profile
	err := c.do(ctx, http.MethodGet, "/api/profile/", nil, &ps)
	return ps, err
}

// Users lists all accounts
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var us []models.User
	err := c.do(ctx, http.MethodGet, "/api/users/", nil, &us)
	return us, err
}

// Tasks lists all tasks
func (c *Client) Tasks(ctx context.Context) ([]models.ReadTask, error) {
	var ts []models.ReadTask
	err := c.do(ctx, http.MethodGet, "/api/tasks/", nil, &ts)
	return ts, err
}

// CreateTask creates a task; the ID of t is ignored
func (c *Client) CreateTask(ctx context.Context, t models.Task) (models.ReadTask, error) {
	var rt models.ReadTask
	err := c.do(ctx, http.MethodPost, "/api/tasks/", t, &rt)
	return rt, err
}

// UpdateTask replaces the task with ID t.ID
func (c *Client) UpdateTask(ctx context.Context, t models.Task) (models.ReadTask, error) {
	var rt models.ReadTask
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d/", t.ID), t, &rt)
	return rt, err
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d/", id), nil, nil)
}

// Categories lists all categories
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cs []models.Category
	err := c.do(ctx, http.MethodGet, "/api/category/", nil, &cs)
	return cs, err
}

// CreateCategory creates a category labelled item
func (c *Client) CreateCategory(ctx context.Context, item string) (models.Category, error) {
	var cat models.Category
	err := c.do(ctx, http.MethodPost, "/api/category/", map[string]string{"item": item}, &cat)
	return cat, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "JWT "+tok)
	}

	logger := log.WithFields(log.Fields{
		"method":     method,
		"path":       path,
		"request_id": reqID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Warn("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger = logger.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("request rejected")
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	logger.Debug("request done")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
