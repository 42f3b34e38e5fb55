// Package client is a small SDK for the auth service HTTP API. It keeps
// a persisted session and reports failures as typed errors so callers
// can distinguish "the server said no" from "the server never answered".
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// TransportKind classifies failures that happened before a usable API
// response was obtained.
type TransportKind string

const (
	// KindUnreachable means the request never completed: DNS failure,
	// connection refused, timeout.
	KindUnreachable TransportKind = "unreachable"

	// KindNonJSON means something answered, but not with the API's JSON
	// contract. Usually the base URL points at the wrong server.
	KindNonJSON TransportKind = "non-json"
)

// TransportError reports a failure to obtain an API response.
type TransportError struct {
	Kind TransportKind
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a JSON error response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// User is the public identity returned by the service.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
}

// Client talks to one auth service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionStore

	// OnUnauthenticated runs after a stored session is rejected with 401
	// and cleared. CLIs use it to tell the user to log in again.
	OnUnauthenticated func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the service at baseURL, persisting sessions
// through store.
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// Register creates a new account. The account stays unusable until the
// emailed confirmation link is followed.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, "", &resp)
	if err != nil {
		return nil, "", err
	}
	return resp.User, resp.Message, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Result *User  `json:"result"`
	Token  string `json:"token"`
}

// Login authenticates and persists the session token on success.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, "", &resp)
	if err != nil {
		return nil, err
	}

	if err := c.sessions.Save(&Session{
		Token:     resp.Token,
		Email:     email,
		User:      resp.Result,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return resp.Result, nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ForgotPassword requests a reset link. The returned message is generic
// whether or not the email belongs to an account.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", forgotPasswordRequest{Email: email}, "", &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword completes a reset using the token from the emailed link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/reset-password", resetPasswordRequest{
		Token:    token,
		Password: newPassword,
	}, "", &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Me returns the identity behind the stored session. A rejected session
// is cleared and reported through OnUnauthenticated.
func (c *Client) Me(ctx context.Context) (*User, error) {
	session, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "Not logged in"}
	}

	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, session.Token, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			if clearErr := c.sessions.Clear(); clearErr == nil && c.OnUnauthenticated != nil {
				c.OnUnauthenticated()
			}
		}
		return nil, err
	}
	return &user, nil
}

// Logout discards the stored session. The token is stateless, so there
// is nothing to revoke server side.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// IsAuthenticated reports whether a session is stored locally. It does
// not verify the token against the server.
func (c *Client) IsAuthenticated() (bool, error) {
	session, err := c.sessions.Load()
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Kind: KindUnreachable, URL: url, Err: err}
	}
	defer resp.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return &TransportError{
			Kind: KindNonJSON,
			URL:  url,
			Err:  fmt.Errorf("unexpected content type %q (status %d)", resp.Header.Get("Content-Type"), resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Kind: KindUnreachable, URL: url, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Message == "" {
			return &TransportError{
				Kind: KindNonJSON,
				URL:  url,
				Err:  fmt.Errorf("status %d with undecodable error body", resp.StatusCode),
			}
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &TransportError{
				Kind: KindNonJSON,
				URL:  url,
				Err:  fmt.Errorf("decode response: %w", err),
			}
		}
	}
	return nil
}
