// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Credentials is the authenticated session handed to the engine at login.
// The engine treats it as opaque apart from the session identity.
type Credentials struct {
	// Login is the account name.
	Login string

	// Token is the bearer token for the remote authority.
	Token string

	// AccountKey unwraps collection keys. It never leaves the client.
	AccountKey []byte

	// ServerURL is informational; the adapter is configured separately.
	ServerURL string
}

// SessionKey identifies the session: two Credentials values with the same
// key belong to the same session.
func (c Credentials) SessionKey() string {
	h := sha256.New()
	h.Write([]byte(c.Login))
	h.Write([]byte{0})
	h.Write([]byte(c.Token))
	h.Write([]byte{0})
	h.Write(c.AccountKey)
	return hex.EncodeToString(h.Sum(nil))
}

// Valid reports whether the credentials carry what the engine needs.
func (c Credentials) Valid() bool {
	return c.Login != "" && c.Token != "" && len(c.AccountKey) > 0
}
