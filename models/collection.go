// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Collection is the cached, decrypted descriptor of an independently encrypted
// container of items (e.g. a notebook).
type Collection struct {
	// UID is globally unique.
	UID string `json:"uid"`

	// KeyID is the fingerprint of the collection key the cache was filled with.
	KeyID string `json:"key_id"`

	// Checkpoint is the opaque token of the last fully applied batch. Empty
	// means nothing was fetched yet.
	Checkpoint string `json:"checkpoint"`

	// Meta is the decrypted collection metadata (name, color, ...).
	Meta ItemMeta `json:"meta,omitempty"`
}

// RemoteCollection is a collection as announced by the remote authority.
type RemoteCollection struct {
	UID string `json:"uid"`

	// EncryptedKey is the collection key wrapped with the account key
	// (nonce || ciphertext).
	EncryptedKey []byte `json:"encrypted_key"`

	// KeyID is the fingerprint of the plaintext collection key.
	KeyID string `json:"key_id"`

	// EncryptedMeta is optional collection metadata sealed with the collection
	// key.
	EncryptedMeta []byte `json:"encrypted_meta,omitempty"`

	// Deleted is set when the collection was removed remotely.
	Deleted bool `json:"deleted"`
}
