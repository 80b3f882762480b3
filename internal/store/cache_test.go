// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func testItem(uid, rev string, mtime int64) models.Item {
	return models.Item{
		UID:           uid,
		CollectionUID: "notes",
		Meta:          models.ItemMeta{"name": uid + "-name", "mtime": float64(mtime)},
		Content:       []byte("body of " + uid),
		Revision:      models.Revision{ID: rev, Number: 1},
	}
}

// memPersister records what reached "disk" and can be told to fail.
type memPersister struct {
	mu      sync.Mutex
	states  map[string]*CollectionState
	applied int
	fail    error
}

func newMemPersister() *memPersister {
	return &memPersister{states: map[string]*CollectionState{}}
}

func (p *memPersister) Load(context.Context) ([]CollectionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return nil, p.fail
	}
	var out []CollectionState
	for _, st := range p.states {
		out = append(out, *st)
	}
	return out, nil
}

func (p *memPersister) SaveCollection(_ context.Context, col models.Collection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	if st, ok := p.states[col.UID]; ok {
		st.Collection = col
		return nil
	}
	p.states[col.UID] = &CollectionState{Collection: col}
	return nil
}

func (p *memPersister) ApplyMutations(_ context.Context, collectionUID string, m models.Mutations) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.applied++
	st := p.states[collectionUID]
	if m.Checkpoint != "" {
		st.Collection.Checkpoint = m.Checkpoint
	}
	st.Items = append(st.Items, m.Upserts...)
	return nil
}

func (p *memPersister) DeleteCollection(_ context.Context, collectionUID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	delete(p.states, collectionUID)
	return nil
}

func (p *memPersister) setFail(err error) {
	p.mu.Lock()
	p.fail = err
	p.mu.Unlock()
}

func newTestCache(t *testing.T, p Persister) *LocalCache {
	t.Helper()
	c := NewLocalCache(p, logger.Nop())
	require.NoError(t, c.UpsertCollection(context.Background(), models.Collection{UID: "notes", KeyID: "k1"}))
	return c
}

// ── reads ─────────────────────────────────────────────────────────────────────

func TestLocalCache_UnknownCollection(t *testing.T) {
	c := NewLocalCache(nil, logger.Nop())

	_, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, c.List("nope"))
	assert.Empty(t, c.Checkpoint("nope"))
	_, ok = c.Item("nope", "a")
	assert.False(t, ok)

	err := c.Apply(context.Background(), "nope", models.Mutations{Checkpoint: "c1"})
	assert.ErrorIs(t, err, ErrCollectionNotCached)
}

func TestLocalCache_ApplyPublishes(t *testing.T) {
	c := newTestCache(t, newMemPersister())

	err := c.Apply(context.Background(), "notes", models.Mutations{
		Upserts:    []models.Item{testItem("a", "r1", 100), testItem("b", "r1", 200)},
		Checkpoint: "c1",
	})
	require.NoError(t, err)

	assert.Equal(t, "c1", c.Checkpoint("notes"))
	list := c.List("notes")
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].UID)
	assert.Equal(t, "b-name", list[0].Name)

	item, ok := c.Item("notes", "a")
	require.True(t, ok)
	assert.Equal(t, "r1", item.Revision.ID)
}

func TestLocalCache_PersistFailureLeavesStateUnchanged(t *testing.T) {
	p := newMemPersister()
	c := newTestCache(t, p)
	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("a", "r1", 100)}, Checkpoint: "c1",
	}))
	before, _ := c.Get("notes")

	diskFull := errors.New("disk full")
	p.setFail(diskFull)

	err := c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("b", "r1", 200)}, Deletes: []string{"a"}, Checkpoint: "c2",
	})
	require.ErrorIs(t, err, diskFull)

	after, _ := c.Get("notes")
	assert.Same(t, before, after)
	assert.Equal(t, "c1", c.Checkpoint("notes"))
	_, ok := c.Item("notes", "a")
	assert.True(t, ok)
}

func TestLocalCache_SnapshotIsolation(t *testing.T) {
	c := newTestCache(t, newMemPersister())
	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("a", "r1", 100)}, Checkpoint: "c1",
	}))

	held, _ := c.Get("notes")

	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("b", "r1", 200)}, Deletes: []string{"a"}, Checkpoint: "c2",
	}))

	assert.Equal(t, "c1", held.Checkpoint())
	assert.Equal(t, 1, held.Len())
	_, ok := held.Item("a")
	assert.True(t, ok)
}

func TestLocalCache_EmptyMutationsSkipPersister(t *testing.T) {
	p := newMemPersister()
	c := newTestCache(t, p)

	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{}))
	assert.Zero(t, p.applied)
}

// ── collections ───────────────────────────────────────────────────────────────

func TestLocalCache_UpsertKeepsCheckpointAndItems(t *testing.T) {
	c := newTestCache(t, newMemPersister())
	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("a", "r1", 100)}, Checkpoint: "c1",
	}))

	require.NoError(t, c.UpsertCollection(context.Background(), models.Collection{
		UID: "notes", KeyID: "k2", Meta: models.ItemMeta{"name": "Notes"},
	}))

	view, ok := c.Get("notes")
	require.True(t, ok)
	assert.Equal(t, "c1", view.Checkpoint())
	assert.Equal(t, "k2", view.Collection().KeyID)
	assert.Equal(t, "Notes", view.Collection().Meta.Name())
	assert.Equal(t, 1, view.Len())
}

func TestLocalCache_UpsertFailureDoesNotAddCollection(t *testing.T) {
	p := newMemPersister()
	p.setFail(errors.New("read-only"))
	c := NewLocalCache(p, logger.Nop())

	require.Error(t, c.UpsertCollection(context.Background(), models.Collection{UID: "notes"}))
	_, ok := c.Get("notes")
	assert.False(t, ok)
}

func TestLocalCache_RemoveCollection(t *testing.T) {
	p := newMemPersister()
	c := newTestCache(t, p)
	require.NoError(t, c.UpsertCollection(context.Background(), models.Collection{UID: "todo"}))

	require.NoError(t, c.RemoveCollection(context.Background(), "notes"))
	_, ok := c.Get("notes")
	assert.False(t, ok)
	assert.NotContains(t, p.states, "notes")

	require.NoError(t, c.RemoveCollection(context.Background(), "notes"), "second removal is a no-op")

	cols := c.Collections()
	require.Len(t, cols, 1)
	assert.Equal(t, "todo", cols[0].UID)
}

func TestLocalCache_LoadAndReset(t *testing.T) {
	p := newMemPersister()
	p.states["notes"] = &CollectionState{
		Collection: models.Collection{UID: "notes", Checkpoint: "c9"},
		Items:      []models.Item{testItem("a", "r3", 100)},
		Conflicts:  []models.ConflictRecord{{ID: "x", CollectionUID: "notes", ItemUID: "a"}},
	}
	c := NewLocalCache(p, logger.Nop())

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "c9", c.Checkpoint("notes"))
	assert.Len(t, c.List("notes"), 1)
	assert.Len(t, c.Conflicts("notes"), 1)

	c.Reset()
	assert.Empty(t, c.Collections())
}

func TestLocalCache_LoadFailure(t *testing.T) {
	p := newMemPersister()
	p.setFail(errors.New("corrupt"))

	assert.Error(t, NewLocalCache(p, logger.Nop()).Load(context.Background()))
}

// ── concurrency ───────────────────────────────────────────────────────────────

func TestLocalCache_ConcurrentWritersAndReaders(t *testing.T) {
	c := NewLocalCache(newMemPersister(), logger.Nop())
	const collections, batches = 4, 50

	for i := range collections {
		require.NoError(t, c.UpsertCollection(context.Background(), models.Collection{UID: fmt.Sprintf("col-%d", i)}))
	}

	var wg sync.WaitGroup
	for i := range collections {
		uid := fmt.Sprintf("col-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				item := testItem(fmt.Sprintf("item-%d", b), "r1", int64(b))
				item.CollectionUID = uid
				assert.NoError(t, c.Apply(context.Background(), uid, models.Mutations{
					Upserts:    []models.Item{item},
					Checkpoint: fmt.Sprintf("c%d", b+1),
				}))
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for range batches {
				view, ok := c.Get(uid)
				if !ok {
					continue
				}
				// A published snapshot always has exactly one item per
				// applied batch.
				if cp := view.Checkpoint(); cp != "" {
					var n int
					_, _ = fmt.Sscanf(cp, "c%d", &n)
					assert.Equal(t, n, view.Len())
				}
			}
		}()
	}
	wg.Wait()

	for i := range collections {
		uid := fmt.Sprintf("col-%d", i)
		assert.Equal(t, fmt.Sprintf("c%d", batches), c.Checkpoint(uid))
		assert.Len(t, c.List(uid), batches)
	}
}

func TestLocalCache_UpdateSeesCurrentSnapshot(t *testing.T) {
	c := newTestCache(t, newMemPersister())
	require.NoError(t, c.Apply(context.Background(), "notes", models.Mutations{
		Upserts: []models.Item{testItem("a", "r1", 100)}, Checkpoint: "c1",
	}))

	err := c.Update(context.Background(), "notes", func(view *CollectionView) (models.Mutations, error) {
		item, ok := view.Item("a")
		require.True(t, ok)
		item.Revision = models.Revision{ID: "r2", Parent: "r1", Number: 2}
		return models.Mutations{Upserts: []models.Item{item}, Checkpoint: "c2"}, nil
	})
	require.NoError(t, err)

	item, _ := c.Item("notes", "a")
	assert.Equal(t, "r2", item.Revision.ID)
	assert.Equal(t, "c2", c.Checkpoint("notes"))
}

func TestLocalCache_UpdateAbortsOnError(t *testing.T) {
	p := newMemPersister()
	c := newTestCache(t, p)
	boom := errors.New("boom")

	err := c.Update(context.Background(), "notes", func(*CollectionView) (models.Mutations, error) {
		return models.Mutations{Checkpoint: "c9"}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.Checkpoint("notes"))
	assert.Zero(t, p.applied)
}
