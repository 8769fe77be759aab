// Package auth implements admin sign-in against the Firebase Auth
// (Identity Toolkit) REST API. The dashboard is read-gated on a successful
// sign-in; the resulting ID token is also what the Firestore backend sends
// as its bearer credential. Sign-out simply discards the session; the
// tokens are short-lived and there is nothing server-side to tear down.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/logger"
)

const (
	signInEndpoint       = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"
	refreshTokenEndpoint = "https://securetoken.googleapis.com/v1/token"

	requestTimeout = 30 * time.Second

	// Refresh the ID token a little before it actually expires.
	expiryLeeway = 5 * time.Minute
)

// Session is a signed-in admin identity.
type Session struct {
	Email        string
	UserID       string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session's ID token is still usable.
func (s *Session) Valid() bool {
	if s == nil || s.IDToken == "" {
		return false
	}
	return time.Now().Add(expiryLeeway).Before(s.ExpiresAt)
}

// Authenticator is the sign-in surface the rest of the application sees.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, session *Session) (*Session, error)
}

// Client talks to the Firebase Auth REST API.
type Client struct {
	apiKey     string
	httpClient *http.Client

	// Overridable in tests.
	signInURL  string
	refreshURL string
}

// NewClient creates an auth client for the given Firebase web API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		signInURL:  signInEndpoint,
		refreshURL: refreshTokenEndpoint,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// SignIn exchanges email/password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	body, err := c.post(ctx, c.signInURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp signInResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	return &Session{
		Email:        resp.Email,
		UserID:       resp.LocalID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(parseExpiresIn(resp.ExpiresIn)),
	}, nil
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// Refresh exchanges the session's refresh token for a fresh ID token.
func (c *Client) Refresh(ctx context.Context, session *Session) (*Session, error) {
	if session == nil || session.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", session.RefreshToken)

	body, err := c.post(ctx, c.refreshURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token refresh response: %w", err)
	}

	return &Session{
		Email:        session.Email,
		UserID:       resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(parseExpiresIn(resp.ExpiresIn)),
	}, nil
}

// post sends the request with the API key appended and returns the body,
// translating non-200 responses into readable errors.
func (c *Client) post(ctx context.Context, endpoint, contentType string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(c.apiKey), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close auth response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sign-in failed: %s", apiErrorMessage(body, resp.StatusCode))
	}

	return body, nil
}

// apiErrorMessage extracts the Identity Toolkit error code from an error
// body, falling back to the HTTP status.
func apiErrorMessage(body []byte, status int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return humanizeAuthError(envelope.Error.Message)
	}
	return http.StatusText(status)
}

// humanizeAuthError maps Identity Toolkit error codes to operator-readable
// messages; unknown codes pass through unchanged.
func humanizeAuthError(code string) string {
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return "invalid email or password"
	case "USER_DISABLED":
		return "account disabled"
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return "too many attempts, try again later"
	default:
		return code
	}
}

// parseExpiresIn converts the API's string-encoded seconds to a duration,
// defaulting to an hour when unparseable.
func parseExpiresIn(s string) time.Duration {
	if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Hour
}
