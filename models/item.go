// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"maps"
	"time"
)

// Well-known metadata keys. Any other key is an extension field and is kept
// as-is.
const (
	MetaName  = "name"
	MetaMTime = "mtime"
)

// ItemMeta is the open metadata record of an item. Values are whatever the
// JSON decoder produced (string, float64, bool, nil, []any, map[string]any).
type ItemMeta map[string]any

// Name returns the display name or an empty string.
func (m ItemMeta) Name() string {
	name, _ := m[MetaName].(string)
	return name
}

// MTime returns the modification time stored as unix milliseconds. The second
// value reports whether the field was present and numeric.
func (m ItemMeta) MTime() (time.Time, bool) {
	switch v := m[MetaMTime].(type) {
	case float64:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	default:
		return time.Time{}, false
	}
}

// Clone returns a shallow copy of the metadata map.
func (m ItemMeta) Clone() ItemMeta {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Revision identifies one version of an item. ID is assigned by the remote
// authority, Parent is the revision this one was derived from ("" for the
// first revision) and Number is monotonic per item.
type Revision struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	Number int64  `json:"number"`
}

// Item is the decrypted, cached state of a single record inside a collection.
type Item struct {
	// UID is unique within the owning collection.
	UID string `json:"uid"`

	// CollectionUID is the owning collection.
	CollectionUID string `json:"collection_uid"`

	Meta    ItemMeta `json:"meta"`
	Content []byte   `json:"content"`

	Revision Revision `json:"revision"`

	// History holds the IDs of revisions this one descends from, oldest first.
	// It is bounded, see MaxRevisionHistory.
	History []string `json:"history,omitempty"`

	// Conflicted is set while an unresolved ConflictRecord references the item.
	Conflicted bool `json:"conflicted"`
}

// MaxRevisionHistory bounds Item.History.
const MaxRevisionHistory = 32

// DescendsFrom reports whether revID is the item's current revision or one of
// its recorded ancestors.
func (i Item) DescendsFrom(revID string) bool {
	if revID == "" {
		return false
	}
	if i.Revision.ID == revID {
		return true
	}
	for _, h := range i.History {
		if h == revID {
			return true
		}
	}
	return false
}

// Clone returns a deep enough copy for snapshot publication: the metadata map,
// content and history are not shared with the receiver.
func (i Item) Clone() Item {
	out := i
	out.Meta = i.Meta.Clone()
	if i.Content != nil {
		out.Content = append([]byte(nil), i.Content...)
	}
	if i.History != nil {
		out.History = append([]string(nil), i.History...)
	}
	return out
}

// Summary returns the list-view projection of the item.
func (i Item) Summary() ItemSummary {
	mtime, _ := i.Meta.MTime()
	return ItemSummary{
		UID:        i.UID,
		Name:       i.Meta.Name(),
		MTime:      mtime,
		Conflicted: i.Conflicted,
	}
}

// ItemSummary is what list screens render.
type ItemSummary struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	MTime      time.Time `json:"mtime"`
	Conflicted bool      `json:"conflicted"`
}
