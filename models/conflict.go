// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConflictRecord describes two or more revisions of the same item that diverged:
// none of the Remote revisions descends from Local and Local does not descend
// from them. Records are never dropped by the engine; only ResolveConflict
// removes them.
type ConflictRecord struct {
	ID            string `json:"id"`
	CollectionUID string `json:"collection_uid"`
	ItemUID       string `json:"item_uid"`

	// Local is the cached copy at the time the divergence was detected.
	Local Item `json:"local"`

	// Remote holds every divergent incoming revision, in arrival order.
	Remote []Item `json:"remote"`

	// DeleteDeferred is set when a delete arrived for the item while the
	// conflict was open and no later remote revision superseded it.
	DeleteDeferred bool `json:"delete_deferred"`

	// DeleteRevision is the revision of the last deferred delete.
	DeleteRevision Revision `json:"delete_revision,omitzero"`

	DetectedAt time.Time `json:"detected_at"`
}

// HasRemote reports whether revID is already recorded as a remote revision.
func (c ConflictRecord) HasRemote(revID string) bool {
	for _, r := range c.Remote {
		if r.Revision.ID == revID {
			return true
		}
	}
	return false
}

// Supersedes reports whether rev comes after the deferred delete: it names
// the delete as its parent or carries a higher revision number.
func (c ConflictRecord) Supersedes(rev Revision) bool {
	if c.DeleteRevision.ID == "" {
		return false
	}
	return rev.Parent == c.DeleteRevision.ID || rev.Number > c.DeleteRevision.Number
}

// Clone copies the record and its items.
func (c ConflictRecord) Clone() ConflictRecord {
	out := c
	out.Local = c.Local.Clone()
	out.Remote = make([]Item, len(c.Remote))
	for i, r := range c.Remote {
		out.Remote[i] = r.Clone()
	}
	return out
}

// Resolution is the choice a higher layer makes for a conflict.
type Resolution int

const (
	// KeepLocal keeps the cached copy and discards the remote revisions.
	KeepLocal Resolution = iota + 1
	// KeepRemote replaces the cached copy with the latest remote revision.
	KeepRemote
	// AcceptDelete applies a deferred delete.
	AcceptDelete
)

func (r Resolution) String() string {
	switch r {
	case KeepLocal:
		return "keep_local"
	case KeepRemote:
		return "keep_remote"
	case AcceptDelete:
		return "accept_delete"
	default:
		return "unknown"
	}
}
