package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedTestToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestParseSessionToken_Success(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedTestToken(t, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("expected subject alice, got %s", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, claims.ExpiresAt)
	}
	if claims.Expired(time.Now()) {
		t.Error("expected token not to be expired")
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	token := signedTestToken(t, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	// Expired tokens are still parsed: the caller decides what to do.
	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !claims.Expired(time.Now()) {
		t.Error("expected token to be expired")
	}
}

func TestParseSessionToken_NoExpiry(t *testing.T) {
	token := signedTestToken(t, jwt.RegisteredClaims{Subject: "bob"})

	claims, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !claims.ExpiresAt.IsZero() {
		t.Errorf("expected zero expiry, got %v", claims.ExpiresAt)
	}
	if claims.Expired(time.Now()) {
		t.Error("token without exp must never be expired")
	}
}

func TestParseSessionToken_Garbage(t *testing.T) {
	_, err := ParseSessionToken("not-a-jwt")
	if !errors.Is(err, ErrInvalidSessionToken) {
		t.Fatalf("expected ErrInvalidSessionToken, got %v", err)
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"surrounding spaces", "  Bearer abc  ", "abc", false},
		{"missing token", "Bearer", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
