// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncStatus is the outcome class of a sync pass.
type SyncStatus string

const (
	// SyncFull means every collection synced.
	SyncFull SyncStatus = "full"
	// SyncPartial means at least one collection failed and the pass still ran.
	SyncPartial SyncStatus = "partial"
	// SyncFailed means the remote authority could not be reached at all or
	// the pass was aborted before any collection ran.
	SyncFailed SyncStatus = "failed"
)

// CollectionResult is the outcome of one collection inside a pass.
type CollectionResult struct {
	CollectionUID string `json:"collection_uid"`

	BatchesApplied int    `json:"batches_applied"`
	ChangesApplied int    `json:"changes_applied"`
	Checkpoint     string `json:"checkpoint"`

	// NewConflicts counts conflict records created or extended by this pass.
	NewConflicts int `json:"new_conflicts"`

	// Removed is set when the collection was deleted remotely and dropped
	// from the cache.
	Removed bool `json:"removed"`

	// Err is nil on success.
	Err error `json:"-"`
}

// OK reports whether the collection synced.
func (r CollectionResult) OK() bool {
	return r.Err == nil
}

// SyncResult is the outcome of one sync pass. Every caller that attached to
// the same pass receives the same value.
type SyncResult struct {
	ID          string             `json:"id"`
	Status      SyncStatus         `json:"status"`
	Collections []CollectionResult `json:"collections"`

	NewConflicts []ConflictRecord `json:"new_conflicts,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Err is the pass-level fatal error, set only when Status is SyncFailed.
	Err error `json:"-"`
}

// Succeeded returns the number of collections that synced.
func (r SyncResult) Succeeded() int {
	n := 0
	for _, c := range r.Collections {
		if c.OK() {
			n++
		}
	}
	return n
}

// Failed returns the failed collection results.
func (r SyncResult) Failed() []CollectionResult {
	var out []CollectionResult
	for _, c := range r.Collections {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// ManagerStatus is what subscribers of a sync manager observe.
type ManagerStatus struct {
	Running    bool        `json:"running"`
	GateOpen   bool        `json:"gate_open"`
	LastResult *SyncResult `json:"last_result,omitempty"`
}
