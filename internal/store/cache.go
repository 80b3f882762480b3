// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
)

// cacheEntry holds one collection. Readers load snap without locking; the
// single writer holds mu for the whole persist-then-publish sequence.
type cacheEntry struct {
	mu      sync.Mutex
	snap    atomic.Pointer[CollectionView]
	removed bool
}

// LocalCache is the decrypted state of every collection of one session and
// the only thing the UI reads.
//
// Reads never block: they return the most recently published snapshot.
// Writes to one collection are serialized; writes to different collections
// run in parallel. A write is published only after the [Persister] accepted
// it, so readers never observe state that is not durable.
type LocalCache struct {
	entries   sync.Map // collection UID -> *cacheEntry
	persister Persister
	logger    *logger.Logger
}

// NewLocalCache returns an empty cache writing through persister. A nil
// persister keeps the cache memory-only.
func NewLocalCache(persister Persister, logger *logger.Logger) *LocalCache {
	if persister == nil {
		persister = NopPersister{}
	}
	return &LocalCache{persister: persister, logger: logger}
}

func (c *LocalCache) entry(collectionUID string) (*cacheEntry, bool) {
	e, ok := c.entries.Load(collectionUID)
	if !ok {
		return nil, false
	}
	return e.(*cacheEntry), true
}

// Get returns the current snapshot of a collection.
func (c *LocalCache) Get(collectionUID string) (*CollectionView, bool) {
	e, ok := c.entry(collectionUID)
	if !ok {
		return nil, false
	}
	return e.snap.Load(), true
}

// List returns the item summaries of a collection, newest first. Unknown
// collections yield nil.
func (c *LocalCache) List(collectionUID string) []models.ItemSummary {
	view, _ := c.Get(collectionUID)
	return view.List()
}

// Item returns one cached item.
func (c *LocalCache) Item(collectionUID, itemUID string) (models.Item, bool) {
	view, _ := c.Get(collectionUID)
	return view.Item(itemUID)
}

// Conflicts returns the open conflict records of a collection.
func (c *LocalCache) Conflicts(collectionUID string) []models.ConflictRecord {
	view, _ := c.Get(collectionUID)
	return view.Conflicts()
}

// Checkpoint returns the checkpoint of a collection, "" when unknown.
func (c *LocalCache) Checkpoint(collectionUID string) string {
	view, _ := c.Get(collectionUID)
	return view.Checkpoint()
}

// Collections returns the descriptors of every cached collection ordered by
// UID.
func (c *LocalCache) Collections() []models.Collection {
	var out []models.Collection
	c.entries.Range(func(_, value any) bool {
		out = append(out, value.(*cacheEntry).snap.Load().Collection())
		return true
	})
	slices.SortFunc(out, func(a, b models.Collection) int { return cmp.Compare(a.UID, b.UID) })
	return out
}

// UpsertCollection adds a collection or refreshes its key fingerprint and
// metadata. The checkpoint and items of a known collection are kept.
func (c *LocalCache) UpsertCollection(ctx context.Context, col models.Collection) error {
	for {
		fresh := &cacheEntry{}
		fresh.snap.Store(newCollectionView(col))

		actual, loaded := c.entries.LoadOrStore(col.UID, fresh)
		e := actual.(*cacheEntry)

		e.mu.Lock()
		if e.removed {
			// Lost a race with RemoveCollection; start over with a new entry.
			e.mu.Unlock()
			continue
		}

		cur := e.snap.Load()
		next := cur
		if loaded {
			updated := col
			updated.Checkpoint = cur.Checkpoint()
			next = cur.withCollection(updated)
		}

		if err := c.persister.SaveCollection(ctx, next.Collection()); err != nil {
			if !loaded {
				e.removed = true
				c.entries.CompareAndDelete(col.UID, e)
			}
			e.mu.Unlock()
			return fmt.Errorf("save collection %s: %w", col.UID, err)
		}
		e.snap.Store(next)
		e.mu.Unlock()
		return nil
	}
}

// Apply writes m to a collection: first to the persister, then, on success,
// to the published snapshot. On error the collection is unchanged.
func (c *LocalCache) Apply(ctx context.Context, collectionUID string, m models.Mutations) error {
	return c.Update(ctx, collectionUID, func(*CollectionView) (models.Mutations, error) {
		return m, nil
	})
}

// Update is a read-modify-write of one collection. fn receives the current
// snapshot while the collection's writer lock is held and returns the
// mutations to apply; no other write to the collection can interleave. An
// error from fn aborts the update unchanged.
func (c *LocalCache) Update(ctx context.Context, collectionUID string, fn func(view *CollectionView) (models.Mutations, error)) error {
	e, ok := c.entry(collectionUID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotCached, collectionUID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return fmt.Errorf("%w: %s", ErrCollectionNotCached, collectionUID)
	}

	cur := e.snap.Load()
	m, err := fn(cur)
	if err != nil {
		return err
	}
	if m.Empty() {
		return nil
	}

	next := cur.apply(m)
	if err := c.persister.ApplyMutations(ctx, collectionUID, m); err != nil {
		return fmt.Errorf("persist mutations of %s: %w", collectionUID, err)
	}
	e.snap.Store(next)

	c.logger.WithCollection(collectionUID).Debug().
		Str("func", "LocalCache.Update").
		Int("upserts", len(m.Upserts)).
		Int("deletes", len(m.Deletes)).
		Int("conflicts", len(m.Conflicts)).
		Int("resolved", len(m.ResolvedConflicts)).
		Str("checkpoint", next.Checkpoint()).
		Msg("mutations applied")

	return nil
}

// RemoveCollection drops a collection with its items and conflicts. Removing
// an unknown collection is a no-op.
func (c *LocalCache) RemoveCollection(ctx context.Context, collectionUID string) error {
	e, ok := c.entry(collectionUID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil
	}
	if err := c.persister.DeleteCollection(ctx, collectionUID); err != nil {
		return fmt.Errorf("delete collection %s: %w", collectionUID, err)
	}
	e.removed = true
	c.entries.CompareAndDelete(collectionUID, e)
	return nil
}

// Load replaces the in-memory state with what the persister holds.
func (c *LocalCache) Load(ctx context.Context) error {
	states, err := c.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}

	c.Reset()
	for _, st := range states {
		view := newCollectionView(st.Collection).apply(models.Mutations{
			Upserts:   st.Items,
			Conflicts: st.Conflicts,
		})
		e := &cacheEntry{}
		e.snap.Store(view)
		c.entries.Store(st.Collection.UID, e)
	}
	return nil
}

// Reset forgets every collection in memory. Persisted state is kept.
func (c *LocalCache) Reset() {
	c.entries.Range(func(key, value any) bool {
		e := value.(*cacheEntry)
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
		c.entries.CompareAndDelete(key, e)
		return true
	})
}
