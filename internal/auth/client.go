package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrCannotConnect      = errors.New("cannot connect to login service")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const msgCannotConnect = "Impossible de se connecter."

// Message is the French sentence shown for a Login error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	default:
		return msgCannotConnect
	}
}

// Client calls the login endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:5001. A nil httpClient
// gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Login returns the session for valid credentials. Any failure other than a
// rejection maps to ErrCannotConnect, wrapped with the cause.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, fmt.Errorf("%w: encode request: %v", ErrCannotConnect, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("%w: build request: %v", ErrCannotConnect, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Session{}, ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return Session{}, fmt.Errorf("%w: unexpected status %d", ErrCannotConnect, resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", ErrCannotConnect, err)
	}
	return session, nil
}
