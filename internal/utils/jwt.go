package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned when the session token is not a JWT.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is what the client reads out of the bearer token issued by
// the remote authority.
type SessionClaims struct {
	// Subject is the account identifier the token was issued for.
	Subject string
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

// Expired reports whether the token expired at now.
func (c SessionClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseSessionToken extracts the subject and expiry of a session token
// WITHOUT verifying its signature. The client cannot verify tokens (it does
// not hold the signing key); the remote authority does on every request.
//
// Example usage:
//
//	claims, err := utils.ParseSessionToken(token)
//	if err == nil && claims.Expired(time.Now()) {
//	    // ask the user to log in again
//	}
func ParseSessionToken(tokenString string) (SessionClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, fmt.Errorf("%w: unexpected claims type", ErrInvalidSessionToken)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	out := SessionClaims{Subject: sub}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Fields(authorizationHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
