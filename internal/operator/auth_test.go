package operator

import (
	"net/http/httptest"
	"testing"
)

func newTestAuth(t *testing.T, username, password string) *Auth {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return NewAuth(map[string]string{username: hash}, []byte("jwt-secret"), []byte("cookie-hash-key-0123456789abcd"))
}

func TestAuthLoginSucceedsAndIssuesVerifiableToken(t *testing.T) {
	auth := newTestAuth(t, "alice", "s3cret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/operator/login", nil)

	token, err := auth.Login(rec, req, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	claims, err := auth.parseToken(token)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("Username = %q, want alice", claims.Username)
	}
}

func TestAuthLoginRejectsWrongPassword(t *testing.T) {
	auth := newTestAuth(t, "alice", "s3cret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/operator/login", nil)

	if _, err := auth.Login(rec, req, "alice", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthLoginRejectsUnknownUser(t *testing.T) {
	auth := newTestAuth(t, "alice", "s3cret")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/operator/login", nil)

	if _, err := auth.Login(rec, req, "bob", "s3cret"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	auth := newTestAuth(t, "alice", "s3cret")
	req := httptest.NewRequest("GET", "/operator/devices", nil)
	if tok := extractBearerToken(req); tok != "" {
		t.Fatalf("expected empty token, got %q", tok)
	}
	_ = auth
}
