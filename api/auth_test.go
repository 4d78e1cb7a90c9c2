package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	t.Setenv(envTestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, "test-audience", "test-issuer")
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-1",
		"aud": "test-audience",
		"iss": "test-issuer",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthValidToken(t *testing.T) {
	auth := newTestAuth(t)
	header := "Bearer " + signToken(t, validClaims(), testSecret)

	userID, err := auth.UserIDFromAuthHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestAuthRejectsBadHeaders(t *testing.T) {
	auth := newTestAuth(t)
	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		if _, err := auth.UserIDFromAuthHeader(header); err == nil {
			t.Fatalf("header %q should be rejected", header)
		}
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	auth := newTestAuth(t)
	claims := validClaims()
	claims["exp"] = time.Now().Add(-2 * time.Hour).Unix()
	header := "Bearer " + signToken(t, claims, testSecret)

	if _, err := auth.UserIDFromAuthHeader(header); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	auth := newTestAuth(t)
	header := "Bearer " + signToken(t, validClaims(), "other-secret")

	if _, err := auth.UserIDFromAuthHeader(header); err == nil {
		t.Fatal("token with wrong signature accepted")
	}
}

func TestAuthRejectsWrongAudience(t *testing.T) {
	auth := newTestAuth(t)
	claims := validClaims()
	claims["aud"] = "other-audience"
	header := "Bearer " + signToken(t, claims, testSecret)

	if _, err := auth.UserIDFromAuthHeader(header); err == nil {
		t.Fatal("token with wrong audience accepted")
	}
}

func TestAuthRejectsMissingSub(t *testing.T) {
	auth := newTestAuth(t)
	claims := validClaims()
	delete(claims, "sub")
	header := "Bearer " + signToken(t, claims, testSecret)

	if _, err := auth.UserIDFromAuthHeader(header); err == nil {
		t.Fatal("token without sub accepted")
	}
}
