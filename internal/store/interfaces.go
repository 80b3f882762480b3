package store

import (
	"context"

	"github.com/MKhiriev/go-note-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/persister_mock.go -package=mock

// CollectionState is everything persisted for one collection.
type CollectionState struct {
	Collection models.Collection
	Items      []models.Item
	Conflicts  []models.ConflictRecord
}

// Persister is the durable side of [LocalCache]. Every method is scoped to
// the owner the persister was built for.
type Persister interface {
	// Load returns every persisted collection of the owner.
	Load(ctx context.Context) ([]CollectionState, error)

	// SaveCollection inserts or updates the collection descriptor, keeping
	// its items.
	SaveCollection(ctx context.Context, col models.Collection) error

	// ApplyMutations writes mutations for collectionUID in one transaction: either
	// every row changes together with the checkpoint or nothing does.
	ApplyMutations(ctx context.Context, collectionUID string, mutations models.Mutations) error

	// DeleteCollection removes the collection with its items and conflicts.
	DeleteCollection(ctx context.Context, collectionUID string) error
}
