// Package client is the session manager for the account API: it calls the
// HTTP boundary, caches the token and user projection between runs, and
// clears that cache on logout or any 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrConnection marks transport failures where no HTTP response arrived,
// distinct from server-returned error bodies.
var ErrConnection = errors.New("could not reach the server, check your connection")

// FieldError mirrors the server's field-level validation entries.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a server-returned failure body.
type APIError struct {
	Status  int
	Message string
	Errors  []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

type authData struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type profileData struct {
	User User `json:"user"`
}

// Client talks to the account API and owns the cached session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *SessionStore
	session    *Session
}

func New(baseURL string, store *SessionStore) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		store: store,
	}
}

// Load restores the cached session and re-verifies it against the profile
// endpoint, so a stale or expired token does not survive a restart. Any
// verification failure clears the cache and leaves the client
// unauthenticated.
func (c *Client) Load(ctx context.Context) (bool, error) {
	session, err := c.store.Load()
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}

	c.session = session
	user, err := c.Profile(ctx)
	if err != nil {
		c.clearSession()
		if errors.Is(err, ErrConnection) {
			return false, err
		}
		return false, nil
	}

	c.session.User = *user
	return true, nil
}

// Authenticated reports whether a verified session is present.
func (c *Client) Authenticated() bool {
	return c.session != nil
}

// CurrentUser returns the cached user projection.
func (c *Client) CurrentUser() (*User, bool) {
	if c.session == nil {
		return nil, false
	}
	user := c.session.User
	return &user, true
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, "/api/auth/signup", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/api/auth/login", body)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*User, error) {
	env, err := c.do(ctx, http.MethodPost, path, body, false)
	if err != nil {
		return nil, err
	}

	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	session := &Session{Token: data.Token, User: data.User}
	if err := c.store.Save(session); err != nil {
		return nil, err
	}
	c.session = session
	return &data.User, nil
}

// Profile fetches the authenticated user from the server.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, true)
	if err != nil {
		return nil, err
	}

	var data profileData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return &data.User, nil
}

// Logout tells the server (best effort) and always clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, true)
	c.clearSession()
	if err != nil && !errors.Is(err, ErrConnection) {
		// Server-side logout is advisory; a rejected token still means
		// the local session is gone, which is the outcome that matters.
		return nil
	}
	return err
}

func (c *Client) clearSession() {
	c.session = nil
	_ = c.store.Clear()
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, authed bool) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed && c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Any 401 invalidates the cached session.
		c.clearSession()
	}

	if resp.StatusCode >= 400 || !env.Success {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: env.Message,
			Errors:  env.Errors,
		}
	}

	return &env, nil
}
