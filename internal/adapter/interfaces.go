// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the remote authority that owns the collection change logs.
//
// The primary abstraction is [RemoteStore], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPRemoteStore]) and [ChangeFetcher], which turns page requests into a
// lazy, retrying sequence of change batches.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrRemoteUnavailable] for 5xx, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-note-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RemoteStore defines transport-agnostic access to the remote authority.
// Implementations are responsible for serialisation, authentication header
// management, and mapping transport-level errors to the sentinel values
// defined in this package.
type RemoteStore interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent requests. Called at login with the session token.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// ListCollections returns every collection the account can see,
	// including ones flagged as deleted since the last listing.
	ListCollections(ctx context.Context) ([]models.RemoteCollection, error)

	// FetchPage returns the next page of the change log of collectionUID
	// after checkpoint ("" means from the beginning). limit <= 0 lets the
	// server choose the page size.
	FetchPage(ctx context.Context, collectionUID, checkpoint string, limit int) (models.EncryptedBatch, error)
}
