package store

import (
	"cmp"
	"maps"
	"slices"

	"github.com/MKhiriev/go-note-sync/models"
)

// CollectionView is an immutable snapshot of one collection: the state after
// the last fully applied batch. A nil view behaves as an empty collection.
type CollectionView struct {
	collection models.Collection
	items      map[string]models.Item
	conflicts  map[string]models.ConflictRecord
	summaries  []models.ItemSummary
}

func newCollectionView(col models.Collection) *CollectionView {
	return &CollectionView{
		collection: col,
		items:      map[string]models.Item{},
		conflicts:  map[string]models.ConflictRecord{},
	}
}

// Collection returns the collection descriptor.
func (v *CollectionView) Collection() models.Collection {
	if v == nil {
		return models.Collection{}
	}
	out := v.collection
	out.Meta = v.collection.Meta.Clone()
	return out
}

// Checkpoint returns the token of the last fully applied batch.
func (v *CollectionView) Checkpoint() string {
	if v == nil {
		return ""
	}
	return v.collection.Checkpoint
}

// Len returns the number of items.
func (v *CollectionView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.items)
}

// Item returns a copy of the cached item.
func (v *CollectionView) Item(itemUID string) (models.Item, bool) {
	if v == nil {
		return models.Item{}, false
	}
	item, ok := v.items[itemUID]
	if !ok {
		return models.Item{}, false
	}
	return item.Clone(), true
}

// List returns item summaries ordered by mtime, newest first, then by UID.
func (v *CollectionView) List() []models.ItemSummary {
	if v == nil {
		return nil
	}
	return slices.Clone(v.summaries)
}

// Conflict returns the open conflict record of an item.
func (v *CollectionView) Conflict(itemUID string) (models.ConflictRecord, bool) {
	if v == nil {
		return models.ConflictRecord{}, false
	}
	c, ok := v.conflicts[itemUID]
	if !ok {
		return models.ConflictRecord{}, false
	}
	return c.Clone(), true
}

// Conflicts returns every open conflict record ordered by item UID.
func (v *CollectionView) Conflicts() []models.ConflictRecord {
	if v == nil || len(v.conflicts) == 0 {
		return nil
	}
	out := make([]models.ConflictRecord, 0, len(v.conflicts))
	for _, uid := range slices.Sorted(maps.Keys(v.conflicts)) {
		out = append(out, v.conflicts[uid].Clone())
	}
	return out
}

// withCollection returns a copy of v carrying col, keeping items and
// conflicts.
func (v *CollectionView) withCollection(col models.Collection) *CollectionView {
	next := *v
	next.collection = col
	return &next
}

// apply returns a new view with m applied. v is left untouched.
func (v *CollectionView) apply(m models.Mutations) *CollectionView {
	next := &CollectionView{
		collection: v.collection,
		items:      maps.Clone(v.items),
		conflicts:  maps.Clone(v.conflicts),
	}

	for _, uid := range m.Deletes {
		delete(next.items, uid)
	}
	for _, item := range m.Upserts {
		next.items[item.UID] = item.Clone()
	}
	for _, uid := range m.ResolvedConflicts {
		delete(next.conflicts, uid)
	}
	for _, c := range m.Conflicts {
		next.conflicts[c.ItemUID] = c.Clone()
	}
	if m.Checkpoint != "" {
		next.collection.Checkpoint = m.Checkpoint
	}

	next.summaries = summarize(next.items)
	return next
}

func summarize(items map[string]models.Item) []models.ItemSummary {
	out := make([]models.ItemSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Summary())
	}
	slices.SortFunc(out, func(a, b models.ItemSummary) int {
		if c := b.MTime.Compare(a.MTime); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	return out
}
