// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/models"
)

// Snapshot is the read side of one cached collection the reconciler compares
// incoming changes against. *store.CollectionView implements it.
type Snapshot interface {
	Item(itemUID string) (models.Item, bool)
	Conflict(itemUID string) (models.ConflictRecord, bool)
}

// IDGenerator produces identifiers for sync passes and conflict records.
type IDGenerator interface {
	Generate() string
}

// Reconciler turns decrypted change batches into cache mutations. It holds no
// state of its own: the same snapshot and batch always yield the same
// mutations, apart from the IDs and timestamps of new conflict records.
type Reconciler struct {
	ids IDGenerator
	now func() time.Time
}

func NewReconciler(ids IDGenerator) *Reconciler {
	return &Reconciler{ids: ids, now: time.Now}
}

// Decode decrypts every change of batch. A single failure rejects the whole
// batch, so nothing of it reaches the cache and its checkpoint is not
// advanced.
func (r *Reconciler) Decode(codec crypto.Codec, collectionKey []byte, batch models.EncryptedBatch) (models.ChangeBatch, error) {
	out := models.ChangeBatch{
		CollectionUID: batch.CollectionUID,
		Checkpoint:    batch.Checkpoint,
		Changes:       make([]models.Change, 0, len(batch.Changes)),
	}

	for _, ch := range batch.Changes {
		item, err := codec.DecryptItem(collectionKey, batch.CollectionUID, ch)
		if err != nil {
			return models.ChangeBatch{}, fmt.Errorf("decode batch at %q: %w", batch.Checkpoint, err)
		}
		out.Changes = append(out.Changes, models.Change{Action: ch.Action, Item: item})
	}

	return out, nil
}

// workingItem is the state of one item while a batch is folded over it.
type workingItem struct {
	item    models.Item
	present bool
	existed bool
	dirty   bool
}

type workingConflict struct {
	rec   models.ConflictRecord
	open  bool
	dirty bool
	fresh bool
}

// reconcileState overlays the batch on top of the snapshot. Items are loaded
// lazily and written back as a single final state, so the order in which the
// cache applies the resulting mutations does not matter.
type reconcileState struct {
	view      Snapshot
	items     map[string]*workingItem
	conflicts map[string]*workingConflict
	order     []string
}

func (s *reconcileState) item(uid string) *workingItem {
	if w, ok := s.items[uid]; ok {
		return w
	}
	item, ok := s.view.Item(uid)
	w := &workingItem{item: item, present: ok, existed: ok}
	s.items[uid] = w
	s.order = append(s.order, uid)
	return w
}

func (s *reconcileState) conflict(uid string) *workingConflict {
	if c, ok := s.conflicts[uid]; ok {
		return c
	}
	rec, ok := s.view.Conflict(uid)
	c := &workingConflict{rec: rec, open: ok}
	s.conflicts[uid] = c
	return c
}

// Reconcile folds batch into the snapshot and returns the mutations to apply
// together with the conflict records this batch created or extended.
//
// Per change, by revision:
//   - item not cached: create it (a delete is a no-op);
//   - same revision, or a revision the cached copy already descends from:
//     nothing to do;
//   - incoming revision's parent is the cached revision, or its parent is
//     unknown but its number is higher: fast-forward the cached copy;
//   - otherwise the histories diverged: record a conflict and keep the cached
//     copy, marked conflicted.
//
// Items with an open conflict are never overwritten; further revisions and
// deletes are added to the record instead.
func (r *Reconciler) Reconcile(view Snapshot, batch models.ChangeBatch) (models.Mutations, []models.ConflictRecord) {
	st := &reconcileState{
		view:      view,
		items:     make(map[string]*workingItem),
		conflicts: make(map[string]*workingConflict),
	}

	for _, ch := range batch.Changes {
		in := ch.Item
		in.CollectionUID = batch.CollectionUID
		w := st.item(in.UID)
		c := st.conflict(in.UID)

		if ch.Action == models.ActionDelete {
			r.applyDelete(w, c, in.Revision)
			continue
		}
		r.applyUpsert(batch.CollectionUID, w, c, in)
	}

	m := models.Mutations{Checkpoint: batch.Checkpoint}
	var created []models.ConflictRecord

	for _, uid := range st.order {
		w := st.items[uid]
		if w.dirty {
			switch {
			case w.present:
				m.Upserts = append(m.Upserts, w.item)
			case w.existed:
				m.Deletes = append(m.Deletes, uid)
			}
		}

		if c := st.conflicts[uid]; c != nil && c.dirty {
			m.Conflicts = append(m.Conflicts, c.rec)
			if c.fresh {
				created = append(created, c.rec)
			}
		}
	}

	return m, created
}

func (r *Reconciler) applyDelete(w *workingItem, c *workingConflict, rev models.Revision) {
	if !w.present {
		return
	}
	if c.open {
		if rev.ID != "" && rev.ID == c.rec.DeleteRevision.ID {
			return
		}
		if rev.ID != "" {
			for _, remote := range c.rec.Remote {
				if remote.Revision.Parent == rev.ID || remote.Revision.Number > rev.Number {
					// A recorded remote revision already replaced this delete.
					return
				}
			}
		}
		c.rec.DeleteDeferred = true
		c.rec.DeleteRevision = rev
		c.dirty, c.fresh = true, true
		return
	}
	w.present = false
	w.item = models.Item{}
	w.dirty = true
}

func (r *Reconciler) applyUpsert(collectionUID string, w *workingItem, c *workingConflict, in models.Item) {
	if !w.present {
		in.History = appendHistory(nil, in.Revision.Parent)
		in.Conflicted = false
		w.item, w.present, w.dirty = in, true, true
		return
	}

	cur := w.item
	if cur.DescendsFrom(in.Revision.ID) {
		return
	}

	if c.open {
		if !c.rec.HasRemote(in.Revision.ID) {
			c.rec.Remote = append(c.rec.Remote, in)
			c.dirty, c.fresh = true, true
		}
		if c.rec.DeleteDeferred && c.rec.Supersedes(in.Revision) {
			c.rec.DeleteDeferred = false
			c.dirty, c.fresh = true, true
		}
		return
	}

	if descends(cur, in.Revision) {
		history := appendHistory(cur.History, cur.Revision.ID)
		if p := in.Revision.Parent; p != cur.Revision.ID {
			history = appendHistory(history, p)
		}
		in.History = history
		in.Conflicted = false
		w.item, w.dirty = in, true
		return
	}

	cur.Conflicted = true
	local := cur.Clone()
	c.rec = models.ConflictRecord{
		ID:            r.ids.Generate(),
		CollectionUID: collectionUID,
		ItemUID:       in.UID,
		Local:         local,
		Remote:        []models.Item{in},
		DetectedAt:    r.now().UTC(),
	}
	c.open, c.dirty, c.fresh = true, true, true
	w.item, w.dirty = cur, true
}

// descends reports whether rev can replace cur without losing a revision.
// A known parent decides; an unknown parent (the remote compacted the
// intermediate revisions away) falls back to the revision number.
func descends(cur models.Item, rev models.Revision) bool {
	if rev.Parent == cur.Revision.ID {
		return true
	}
	if rev.Parent != "" && cur.DescendsFrom(rev.Parent) {
		// Sibling of the cached revision.
		return false
	}
	return rev.Number > cur.Revision.Number
}

func appendHistory(history []string, revID string) []string {
	if revID == "" || slices.Contains(history, revID) {
		return history
	}
	out := append(slices.Clone(history), revID)
	if n := len(out) - models.MaxRevisionHistory; n > 0 {
		out = out[n:]
	}
	return out
}

// Resolve computes the mutations that settle the conflict of itemUID.
//
// KeepLocal keeps the cached copy and remembers the remote revisions as
// seen. KeepRemote applies the latest remote event: the deferred delete while
// it is pending, else the latest remote revision. A re-creation after a
// delete clears the pending delete. AcceptDelete applies a deferred
// delete and fails with ErrNothingToResolve when there is none.
func (r *Reconciler) Resolve(view Snapshot, itemUID string, res models.Resolution) (models.Mutations, error) {
	rec, ok := view.Conflict(itemUID)
	if !ok {
		return models.Mutations{}, fmt.Errorf("%w: item %s", ErrConflictNotFound, itemUID)
	}
	cur, ok := view.Item(itemUID)
	if !ok {
		cur = rec.Local
	}

	m := models.Mutations{ResolvedConflicts: []string{itemUID}}

	switch res {
	case models.KeepLocal:
		history := cur.History
		for _, remote := range rec.Remote {
			history = appendHistory(history, remote.Revision.ID)
		}
		cur.History = history
		cur.Conflicted = false
		m.Upserts = []models.Item{cur}

	case models.KeepRemote:
		if rec.DeleteDeferred || len(rec.Remote) == 0 {
			m.Deletes = []string{itemUID}
			break
		}
		latest := rec.Remote[len(rec.Remote)-1]
		history := appendHistory(cur.History, cur.Revision.ID)
		for _, remote := range rec.Remote[:len(rec.Remote)-1] {
			history = appendHistory(history, remote.Revision.ID)
		}
		latest.History = appendHistory(history, latest.Revision.Parent)
		latest.Conflicted = false
		m.Upserts = []models.Item{latest}

	case models.AcceptDelete:
		if !rec.DeleteDeferred {
			return models.Mutations{}, fmt.Errorf("%w: item %s has no deferred delete", ErrNothingToResolve, itemUID)
		}
		m.Deletes = []string{itemUID}

	default:
		return models.Mutations{}, fmt.Errorf("%w: %d", ErrUnknownResolution, res)
	}

	return m, nil
}
