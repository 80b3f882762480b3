// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Transport and crypto errors are translated to these
// values by classify before they reach callers of the sync manager.
var (
	ErrRemoteUnavailable  = errors.New("remote authority unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDecryptionFailure  = errors.New("decryption failure")
	ErrKeyMismatch        = errors.New("key mismatch")
	ErrProtocol           = errors.New("remote protocol violation")
	ErrCacheWrite         = errors.New("local cache write failed")
	ErrInternal           = errors.New("internal sync error")

	ErrSyncFatal          = errors.New("sync pass failed")
	ErrSessionClosed      = errors.New("session closed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflictNotFound   = errors.New("conflict not found")
	ErrNothingToResolve   = errors.New("nothing to resolve")
	ErrUnknownResolution  = errors.New("unknown conflict resolution")
)

// CollectionError is the failure of one collection inside a sync pass. Kind
// is one of the taxonomy values above, Err is the underlying cause.
type CollectionError struct {
	CollectionUID string
	Kind          error
	Err           error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection %s: %v: %v", e.CollectionUID, e.Kind, e.Err)
}

// Is matches the taxonomy kind, so errors.Is(err, ErrKeyMismatch) works on a
// *CollectionError.
func (e *CollectionError) Is(target error) bool {
	return e.Kind == target
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

func collectionError(collectionUID string, err error) error {
	return &CollectionError{
		CollectionUID: collectionUID,
		Kind:          classify(err),
		Err:           err,
	}
}
