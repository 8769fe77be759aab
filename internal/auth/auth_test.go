package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newTestClient(rt http.RoundTripper) *Client {
	c := NewClient("test-api-key")
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func TestClient_SignIn(t *testing.T) {
	client := newTestClient(&MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.String(), "signInWithPassword") {
				return nil, errors.New("unexpected request: " + req.URL.String())
			}
			if req.URL.Query().Get("key") != "test-api-key" {
				t.Errorf("request missing API key: %s", req.URL.String())
			}
			return jsonResponse(http.StatusOK, `{
				"idToken": "id-token",
				"email": "admin@example.com",
				"refreshToken": "refresh-token",
				"expiresIn": "3600",
				"localId": "uid-1"
			}`), nil
		},
	})

	session, err := client.SignIn(context.Background(), "admin@example.com", "hunter2")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if session.Email != "admin@example.com" || session.UserID != "uid-1" ||
		session.IDToken != "id-token" || session.RefreshToken != "refresh-token" {
		t.Errorf("SignIn() session = %+v", session)
	}
	if !session.Valid() {
		t.Errorf("SignIn() session should be valid until ~%v", session.ExpiresAt)
	}
}

func TestClient_SignIn_BadCredentials(t *testing.T) {
	client := newTestClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadRequest, `{"error":{"message":"INVALID_PASSWORD"}}`), nil
		},
	})

	_, err := client.SignIn(context.Background(), "admin@example.com", "wrong")
	if err == nil {
		t.Fatal("SignIn() expected error")
	}
	if !strings.Contains(err.Error(), "invalid email or password") {
		t.Errorf("SignIn() error = %v, want credential message", err)
	}
}

func TestClient_SignIn_NetworkError(t *testing.T) {
	client := newTestClient(&MockRoundTripper{
		RoundTripFunc: func(_ *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	})

	if _, err := client.SignIn(context.Background(), "a@b.c", "p"); err == nil {
		t.Fatal("SignIn() expected error on network failure")
	}
}

func TestClient_Refresh(t *testing.T) {
	client := newTestClient(&MockRoundTripper{
		RoundTripFunc: func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Host, "securetoken") {
				return nil, errors.New("unexpected host: " + req.URL.Host)
			}
			return jsonResponse(http.StatusOK, `{
				"id_token": "fresh-id-token",
				"refresh_token": "fresh-refresh-token",
				"expires_in": "3600",
				"user_id": "uid-1"
			}`), nil
		},
	})

	old := &Session{
		Email:        "admin@example.com",
		RefreshToken: "stale-refresh-token",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}

	session, err := client.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if session.IDToken != "fresh-id-token" || session.Email != "admin@example.com" {
		t.Errorf("Refresh() session = %+v", session)
	}
}

func TestClient_Refresh_NoToken(t *testing.T) {
	client := newTestClient(nil)
	if _, err := client.Refresh(context.Background(), &Session{}); err == nil {
		t.Fatal("Refresh() expected error without refresh token")
	}
}

func TestSession_Valid(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"Nil", nil, false},
		{"NoToken", &Session{ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"Expired", &Session{IDToken: "t", ExpiresAt: time.Now().Add(-time.Minute)}, false},
		{"WithinLeeway", &Session{IDToken: "t", ExpiresAt: time.Now().Add(time.Minute)}, false},
		{"Valid", &Session{IDToken: "t", ExpiresAt: time.Now().Add(time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
