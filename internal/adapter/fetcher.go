// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
	"github.com/sethvargo/go-retry"
)

// ChangeFetcher turns a [RemoteStore] into lazy per-collection change
// sequences.
type ChangeFetcher struct {
	remote    RemoteStore
	pageLimit int
	retries   uint64
	baseDelay time.Duration
	logger    *logger.Logger
}

// NewChangeFetcher builds a fetcher that requests pages of syncCfg.PageLimit
// changes and retries [ErrRemoteUnavailable] up to syncCfg.RetryAttempts
// times per page with exponential backoff starting at syncCfg.RetryBaseDelay.
func NewChangeFetcher(remote RemoteStore, syncCfg config.ClientSync, logger *logger.Logger) *ChangeFetcher {
	baseDelay := syncCfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = config.DefaultRetryBaseDelay
	}
	retries := uint64(0)
	if syncCfg.RetryAttempts > 0 {
		retries = uint64(syncCfg.RetryAttempts)
	}

	return &ChangeFetcher{
		remote:    remote,
		pageLimit: syncCfg.PageLimit,
		retries:   retries,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// FetchChanges returns the change log of collectionUID after checkpoint as a
// sequence of batches in server order. The sequence ends after the page the
// server marks as done, or right after yielding the first error. Iteration
// can stop early; restarting from any yielded batch's Checkpoint continues
// where that batch ended.
//
// Nothing is requested until the sequence is ranged over.
func (f *ChangeFetcher) FetchChanges(ctx context.Context, collectionUID, checkpoint string) iter.Seq2[models.EncryptedBatch, error] {
	return func(yield func(models.EncryptedBatch, error) bool) {
		cursor := checkpoint
		for {
			batch, err := f.fetchPage(ctx, collectionUID, cursor)
			if err != nil {
				yield(models.EncryptedBatch{}, err)
				return
			}
			if batch.Checkpoint == "" {
				batch.Checkpoint = cursor
			}

			if len(batch.Changes) > 0 || batch.Checkpoint != cursor {
				if !yield(batch, nil) {
					return
				}
			}

			if batch.Done {
				return
			}
			if batch.Checkpoint == cursor {
				yield(models.EncryptedBatch{}, fmt.Errorf("%w: collection %s: checkpoint %q did not advance",
					ErrMalformedResponse, collectionUID, cursor))
				return
			}
			cursor = batch.Checkpoint
		}
	}
}

func (f *ChangeFetcher) fetchPage(ctx context.Context, collectionUID, cursor string) (models.EncryptedBatch, error) {
	log := f.logger.WithCollection(collectionUID)

	var (
		batch   models.EncryptedBatch
		attempt int
	)
	backoff := retry.WithMaxRetries(f.retries, retry.NewExponential(f.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		var err error
		batch, err = f.remote.FetchPage(ctx, collectionUID, cursor, f.pageLimit)
		if errors.Is(err, ErrRemoteUnavailable) {
			log.Warn().
				Str("func", "ChangeFetcher.fetchPage").
				Str("checkpoint", cursor).
				Int("attempt", attempt).
				Err(err).
				Msg("remote unavailable, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return models.EncryptedBatch{}, fmt.Errorf("fetch page of %s after %d attempt(s): %w", collectionUID, attempt, err)
	}

	return batch, nil
}
