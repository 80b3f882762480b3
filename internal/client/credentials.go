package client

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/internal/utils"
	"github.com/MKhiriev/go-note-sync/models"
)

var (
	ErrSessionExpired = errors.New("session token is expired")
	ErrInvalidKeySalt = errors.New("key salt is not valid base64")
	ErrLoginMismatch  = errors.New("login does not match session token subject")
)

// LoginCredentials turns the configured account settings into engine
// credentials. The session token must not be expired at now; the login
// defaults to the token subject. The account key is derived from the master
// password and the base64 encoded key salt. A token copied together with its
// "Bearer" scheme is accepted.
func LoginCredentials(app config.ClientApp, codec crypto.Codec, now time.Time) (models.Credentials, error) {
	token := strings.TrimSpace(app.SessionToken)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		var err error
		if token, err = utils.ParseBearerToken(token); err != nil {
			return models.Credentials{}, err
		}
	}

	claims, err := utils.ParseSessionToken(token)
	if err != nil {
		return models.Credentials{}, err
	}
	if claims.Expired(now) {
		return models.Credentials{}, fmt.Errorf("%w: expired at %s", ErrSessionExpired, claims.ExpiresAt.Format(time.RFC3339))
	}

	login := app.Login
	switch {
	case login == "":
		login = claims.Subject
	case claims.Subject != "" && claims.Subject != login:
		return models.Credentials{}, fmt.Errorf("%w: %q vs %q", ErrLoginMismatch, login, claims.Subject)
	}

	salt, err := base64.StdEncoding.DecodeString(app.KeySalt)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%w: %v", ErrInvalidKeySalt, err)
	}

	return models.Credentials{
		Login:      login,
		Token:      token,
		AccountKey: codec.DeriveAccountKey(app.Password, salt),
	}, nil
}
