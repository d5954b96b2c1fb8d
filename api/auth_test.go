package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func newTestAuth(t *testing.T, secret string) *Auth {
	t.Helper()
	t.Setenv(envAuthTestMode, "1")
	t.Setenv(envTestJWTSecret, secret)
	return NewAuth(nil, "", "")
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthValidToken(t *testing.T) {
	a := newTestAuth(t, "secret")
	token := signedToken(t, "secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	sub, err := a.UserIDFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("unexpected sub: %q", sub)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	a := newTestAuth(t, "secret")
	if _, err := a.UserIDFromAuthHeader(""); err != errMissingAuthorization {
		t.Fatalf("expected missing authorization error, got %v", err)
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	a := newTestAuth(t, "secret")
	for _, header := range []string{"Bearer", "Bearer short", "Basic abc.def.ghi", "Bearer no-dots-here"} {
		if _, err := a.UserIDFromAuthHeader(header); err == nil {
			t.Fatalf("expected error for header %q", header)
		}
	}
}

func TestAuthWrongSecret(t *testing.T) {
	a := newTestAuth(t, "secret")
	token := signedToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestAuthExpiredToken(t *testing.T) {
	a := newTestAuth(t, "secret")
	token := signedToken(t, "secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-2 * time.Hour).Unix(),
	})
	if _, err := a.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestAuthMissingSub(t *testing.T) {
	a := newTestAuth(t, "secret")
	token := signedToken(t, "secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.UserIDFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected missing sub to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("  Bearer aaa.bbb.ccc  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "aaa.bbb.ccc" {
		t.Fatalf("unexpected token: %q", token)
	}

	if _, err := bearerToken("   "); err != errMissingAuthorization {
		t.Fatalf("expected missing authorization, got %v", err)
	}
	for _, header := range []string{
		"Bearer aaa.bbb",
		"Bearer aaa.bbb.ccc.ddd",
		"bearer aaa.bbb.ccc",
		"Bearer ",
		"Beareraaa.bbb.ccc",
	} {
		if _, err := bearerToken(header); err != errBadAuthorization {
			t.Fatalf("expected bad authorization for %q, got %v", header, err)
		}
	}
}
