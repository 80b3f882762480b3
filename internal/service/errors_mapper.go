// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-note-sync/internal/adapter"
	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/internal/store"
)

// classify translates an adapter, crypto or store error into the engine
// taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, context.Canceled):
		return ErrSessionClosed

	case errors.Is(err, adapter.ErrUnauthorized),
		errors.Is(err, adapter.ErrForbidden):
		return ErrUnauthorized

	case errors.Is(err, adapter.ErrCollectionNotFound):
		return ErrCollectionNotFound

	case errors.Is(err, adapter.ErrRemoteUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return ErrRemoteUnavailable

	case errors.Is(err, adapter.ErrMalformedResponse),
		errors.Is(err, adapter.ErrBadRequest):
		return ErrProtocol

	case errors.Is(err, crypto.ErrKeyMismatch),
		errors.Is(err, crypto.ErrInvalidKey):
		return ErrKeyMismatch

	case errors.Is(err, crypto.ErrDecryptionFailure):
		return ErrDecryptionFailure

	case errors.Is(err, store.ErrExecutingStatement),
		errors.Is(err, store.ErrBeginningTransaction),
		errors.Is(err, store.ErrCommitingTransaction),
		errors.Is(err, store.ErrCollectionNotCached):
		return ErrCacheWrite
	}

	return ErrInternal
}
