package store

import (
	"context"

	"github.com/MKhiriev/go-note-sync/models"
)

// NopPersister keeps the cache memory-only.
type NopPersister struct{}

func (NopPersister) Load(context.Context) ([]CollectionState, error) { return nil, nil }

func (NopPersister) SaveCollection(context.Context, models.Collection) error { return nil }

func (NopPersister) ApplyMutations(context.Context, string, models.Mutations) error { return nil }

func (NopPersister) DeleteCollection(context.Context, string) error { return nil }
