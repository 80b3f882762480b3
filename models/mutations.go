// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Mutations is the unit of write against one collection of the local cache.
// It is applied atomically together with the checkpoint advance.
type Mutations struct {
	Upserts []Item
	Deletes []string

	// Conflicts are inserted or replaced by ItemUID.
	Conflicts []ConflictRecord
	// ResolvedConflicts lists item UIDs whose conflict records are removed.
	ResolvedConflicts []string

	// Checkpoint, when non-empty, becomes the collection checkpoint.
	Checkpoint string
}

// Empty reports whether m changes nothing.
func (m Mutations) Empty() bool {
	return len(m.Upserts) == 0 && len(m.Deletes) == 0 &&
		len(m.Conflicts) == 0 && len(m.ResolvedConflicts) == 0 && m.Checkpoint == ""
}
