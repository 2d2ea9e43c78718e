// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST collaborator for the chat server.
//
// The client never stores credentials: the bearer token is read through a
// provider func on every request, so a session change is picked up without
// reconfiguring the client. Responses are decoded into the model package's
// wire types.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/morganforge/tidings/internal/model"
)

// Configuration constants for the REST client.
const (
	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the number of attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// maxResponseSize bounds response bodies to keep a misbehaving server
	// from exhausting memory.
	maxResponseSize = 10 * 1024 * 1024
)

// sharedTransport pools connections across all requests.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// TokenFunc supplies the current bearer token, empty when unauthenticated.
type TokenFunc func() string

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat server's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	maxRetries int
	log        *zap.Logger
}

// NewClient creates a REST client for the given base URL. The token func may
// return empty for unauthenticated endpoints (login, register).
func NewClient(baseURL string, token TokenFunc, log *zap.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		token:      token,
		maxRetries: DefaultMaxRetries,
		log:        log,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the maximum number of attempts for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithHTTPClient swaps the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// authResponse is the shape of /api/login and /api/register responses.
type authResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a session. A rejection is returned as a
// ValidationError carrying the server's reason.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (model.Session, error) {
	body := map[string]string{"username": usernameOrEmail, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return model.Session{}, asCredentialError(err)
	}
	return model.Session{
		Token: resp.AccessToken,
		User:  model.User{ID: resp.UserID, Username: resp.Username},
	}, nil
}

// Register creates an account and returns the issued session.
func (c *Client) Register(ctx context.Context, username, email, password string) (model.Session, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", body, &resp); err != nil {
		return model.Session{}, asCredentialError(err)
	}
	return model.Session{
		Token: resp.AccessToken,
		User:  model.User{ID: resp.UserID, Username: username},
	}, nil
}

// Me returns the authenticated user's profile. ErrUnauthenticated means the
// persisted token is no longer valid.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chats fetches all conversations visible to the current user.
func (c *Client) Chats(ctx context.Context) ([]model.Conversation, error) {
	var resp struct {
		Chats []model.Conversation `json:"chats"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// Users fetches the visible-users set for the new-chat dialogs.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var resp struct {
		Users []model.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// CreateDirectChat creates (or returns the existing) two-party conversation
// with the given user. The server responds with the complete representation.
func (c *Client) CreateDirectChat(ctx context.Context, userID string) (model.Conversation, error) {
	var conv model.Conversation
	err := c.do(ctx, http.MethodPost, "/api/chats", map[string]string{"user_id": userID}, &conv)
	return conv, err
}

// CreateGroupChat creates a named group conversation.
func (c *Client) CreateGroupChat(ctx context.Context, name string, participants []string) (model.Conversation, error) {
	body := map[string]any{"name": name, "participants": participants}
	var conv model.Conversation
	err := c.do(ctx, http.MethodPost, "/api/chats", body, &conv)
	return conv, err
}

// AddParticipant adds a user to a group conversation. The updated
// conversation arrives via the chat_updated push event.
func (c *Client) AddParticipant(ctx context.Context, chatID, userID string) error {
	path := fmt.Sprintf("/api/chats/%s/participants", url.PathEscape(chatID))
	return c.do(ctx, http.MethodPost, path, map[string]string{"user_id": userID}, nil)
}

// RemoveParticipant removes a user from a group conversation.
func (c *Client) RemoveParticipant(ctx context.Context, chatID, userID string) error {
	path := fmt.Sprintf("/api/chats/%s/participants/%s", url.PathEscape(chatID), url.PathEscape(userID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// Messages fetches the full thread for a conversation.
func (c *Client) Messages(ctx context.Context, chatID string) ([]model.Message, error) {
	var resp struct {
		Messages []model.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/chats/%s/messages", url.PathEscape(chatID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a new message. The created message is not taken from the
// response: it arrives through the push channel's new_message echo, which is
// the single source of truth for the thread cache.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) error {
	path := fmt.Sprintf("/api/chats/%s/messages", url.PathEscape(chatID))
	return c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, nil)
}

// EditMessage updates a message's content. The local cache is updated by the
// message_updated push event, not by this call's response.
func (c *Client) EditMessage(ctx context.Context, messageID, content string) error {
	path := fmt.Sprintf("/api/messages/%s", url.PathEscape(messageID))
	return c.do(ctx, http.MethodPut, path, map[string]string{"content": content}, nil)
}

// DeleteMessage removes a message. The local cache is updated by the
// message_deleted push event.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/api/messages/%s", url.PathEscape(messageID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// errorResponse is the server's error body shape.
type errorResponse struct {
	Msg string `json:"msg"`
}

// do performs a request with retries for transient failures and decodes the
// response into out (which may be nil for empty responses).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doOnce performs a single attempt.
func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &transportError{err}
	}
	defer resp.Body.Close()

	// Log method, path, status, and duration only. Bodies and headers may
	// carry credentials or message content.
	c.log.Debug("request",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders attaches auth and bookkeeping headers.
func (c *Client) setHeaders(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tidings/0.1")
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) == maxResponseSize {
		return nil, fmt.Errorf("response exceeded %d bytes", maxResponseSize)
	}
	return body, nil
}

// decodeError maps a non-success response to the error taxonomy:
// 401 is ErrUnauthenticated, other 4xx are validation rejections carrying the
// server's msg field, everything else is an APIError.
func decodeError(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	switch {
	case status == http.StatusUnauthorized:
		if er.Msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthenticated, er.Msg)
		}
		return ErrUnauthenticated
	case status >= 400 && status < 500:
		return &ValidationError{Status: status, Msg: er.Msg}
	default:
		return &APIError{Status: status, Body: strings.TrimSpace(string(body))}
	}
}

// asCredentialError rewrites a 401 from the auth endpoints as a form-level
// rejection. There is no session to invalidate yet; the form shows the
// server's reason instead.
func asCredentialError(err error) error {
	if !errors.Is(err, ErrUnauthenticated) {
		return err
	}
	msg := strings.TrimPrefix(err.Error(), ErrUnauthenticated.Error()+": ")
	if msg == ErrUnauthenticated.Error() || msg == "" {
		msg = "invalid credentials"
	}
	return &ValidationError{Status: http.StatusUnauthorized, Msg: msg}
}

// transportError marks network-level failures as retryable.
type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// isRetryable reports whether the attempt should be repeated: network errors
// and 5xx responses, never 4xx and never context cancellation.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	return false
}

// backoff returns the delay before the given retry attempt.
func backoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
