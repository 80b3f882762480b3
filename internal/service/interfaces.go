// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service is the sync engine: it fetches encrypted change logs,
// reconciles them into the local cache and tells the presentation layer when
// the cache is ready.
//
// [Sessions] hands out one [SyncManager] per authenticated session. The
// manager runs sync passes (deduplicated, bounded fan-out across
// collections), [Reconciler] turns each decrypted batch into cache mutations
// and [SyncGate] opens after the first successful pass.
package service

import (
	"context"
	"iter"

	"github.com/MKhiriev/go-note-sync/internal/store"
	"github.com/MKhiriev/go-note-sync/models"
)

// ChangeFetcher yields the change log of one collection after checkpoint as a
// lazy, finite sequence of batches. *adapter.ChangeFetcher implements it.
type ChangeFetcher interface {
	FetchChanges(ctx context.Context, collectionUID, checkpoint string) iter.Seq2[models.EncryptedBatch, error]
}

// Cache is the local cache of one session. *store.LocalCache implements it.
type Cache interface {
	Get(collectionUID string) (*store.CollectionView, bool)
	List(collectionUID string) []models.ItemSummary
	Item(collectionUID, itemUID string) (models.Item, bool)
	Conflicts(collectionUID string) []models.ConflictRecord
	Checkpoint(collectionUID string) string
	Collections() []models.Collection

	UpsertCollection(ctx context.Context, col models.Collection) error
	RemoveCollection(ctx context.Context, collectionUID string) error
	Update(ctx context.Context, collectionUID string, fn func(view *store.CollectionView) (models.Mutations, error)) error
}

// CacheFactory opens the cache of owner, hydrated from durable storage.
type CacheFactory func(ctx context.Context, owner string) (Cache, error)
