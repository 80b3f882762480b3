// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ChangeAction is the kind of a change-log record.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
	ActionDelete ChangeAction = "delete"
)

// Valid reports whether a is a known action.
func (a ChangeAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// EncryptedChange is a single change-log record as served by the remote
// authority. Payload is nonce || ciphertext of the JSON encoded PlainItem and
// is empty for deletes.
type EncryptedChange struct {
	ItemUID  string       `json:"item_uid"`
	Action   ChangeAction `json:"action"`
	Revision Revision     `json:"revision"`
	KeyID    string       `json:"key_id"`
	Payload  []byte       `json:"payload,omitempty"`
}

// EncryptedBatch is one page of a collection change log.
type EncryptedBatch struct {
	CollectionUID string            `json:"collection_uid"`
	Changes       []EncryptedChange `json:"changes"`

	// Checkpoint is the token to resume after this batch.
	Checkpoint string `json:"stoken"`

	// Done is set on the last page available as of the request.
	Done bool `json:"done"`
}

// PlainItem is the decrypted payload of an EncryptedChange.
type PlainItem struct {
	Meta    ItemMeta `json:"meta"`
	Content []byte   `json:"content"`
}

// Change is a decrypted change-log record.
type Change struct {
	Action ChangeAction
	Item   Item
}

// ChangeBatch is a fully decrypted EncryptedBatch.
type ChangeBatch struct {
	CollectionUID string
	Changes       []Change
	Checkpoint    string
}
