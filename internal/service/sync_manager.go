// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/adapter"
	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/internal/store"
	"github.com/MKhiriev/go-note-sync/internal/utils"
	"github.com/MKhiriev/go-note-sync/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const syncFlightKey = "sync"

// SyncManager runs sync passes for one session. Concurrent Sync calls attach
// to the pass already in flight; collections of a pass are synced
// concurrently, bounded by the configured limit, and fail independently.
type SyncManager struct {
	accountKey []byte

	remote     adapter.RemoteStore
	fetcher    ChangeFetcher
	codec      crypto.Codec
	cache      Cache
	reconciler *Reconciler
	gate       *SyncGate
	epoch      uint64
	ids        IDGenerator
	logger     *logger.Logger

	maxConcurrent int

	// ctx is the session context: logout cancels it and with it every pass.
	ctx    context.Context
	cancel context.CancelFunc

	flight singleflight.Group

	mu     sync.RWMutex
	closed bool
	passes sync.WaitGroup

	keysMu sync.Mutex
	keys   map[string]collectionKey

	running atomic.Bool
	last    atomic.Pointer[models.SyncResult]
	status  *broadcaster[models.ManagerStatus]
}

type collectionKey struct {
	keyID string
	key   []byte
}

// target is one collection a pass visits. remote is nil for collections only
// the cache knows about.
type target struct {
	uid    string
	remote *models.RemoteCollection
}

// Sync runs a pass, or attaches to the one already running, and returns its
// result. A partial pass is not an error; the error is non-nil only when the
// pass failed as a whole (see models.SyncFailed) or ctx ended first. ctx only
// bounds the wait: the pass itself lives as long as the session.
func (m *SyncManager) Sync(ctx context.Context) (models.SyncResult, error) {
	if m.isClosed() {
		return models.SyncResult{}, ErrSessionClosed
	}

	ch := m.join()

	select {
	case <-ctx.Done():
		return models.SyncResult{}, ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(models.SyncResult)
		return res, r.Err
	}
}

// join attaches to the running pass or starts one.
func (m *SyncManager) join() <-chan singleflight.Result {
	return m.flight.DoChan(syncFlightKey, func() (any, error) {
		res := m.runPass()
		return res, res.Err
	})
}

// Submit starts a pass (or attaches to the running one) without waiting. The
// caller is attached when Submit returns. The channel delivers exactly one
// result and is then closed.
func (m *SyncManager) Submit() <-chan models.SyncResult {
	out := make(chan models.SyncResult, 1)
	if m.isClosed() {
		out <- models.SyncResult{Status: models.SyncFailed, Err: ErrSessionClosed}
		close(out)
		return out
	}

	// Wait for the pass itself: after logout it still reports why it stopped.
	ch := m.join()
	go func() {
		defer close(out)
		r := <-ch
		res, _ := r.Val.(models.SyncResult)
		if r.Err != nil && res.ID == "" {
			res = models.SyncResult{Status: models.SyncFailed, Err: r.Err}
		}
		out <- res
	}()

	return out
}

// Status returns the current state of the manager.
func (m *SyncManager) Status() models.ManagerStatus {
	return models.ManagerStatus{
		Running:    m.running.Load(),
		GateOpen:   m.gate.IsOpen(),
		LastResult: m.last.Load(),
	}
}

// Subscribe returns a channel that receives the current status and then every
// change of it; only the latest status is kept for slow readers. The channel
// is closed when the manager is closed or the returned func is called.
func (m *SyncManager) Subscribe() (<-chan models.ManagerStatus, func()) {
	return m.status.subscribe(m.Status())
}

// Cache exposes the session cache for reads.
func (m *SyncManager) Cache() Cache {
	return m.cache
}

// Gate returns the sync gate the manager opens.
func (m *SyncManager) Gate() *SyncGate {
	return m.gate
}

// ResolveConflict settles the conflict of one item. The decision is applied
// atomically with respect to sync passes writing the same collection.
func (m *SyncManager) ResolveConflict(ctx context.Context, collectionUID, itemUID string, res models.Resolution) error {
	if m.isClosed() {
		return ErrSessionClosed
	}

	err := m.cache.Update(ctx, collectionUID, func(view *store.CollectionView) (models.Mutations, error) {
		return m.reconciler.Resolve(view, itemUID, res)
	})
	if errors.Is(err, store.ErrCollectionNotCached) {
		return fmt.Errorf("%w: %w", ErrConflictNotFound, err)
	}
	if err != nil {
		return fmt.Errorf("resolve conflict of %s/%s: %w", collectionUID, itemUID, err)
	}

	m.logger.WithCollection(collectionUID).Info().
		Str("func", "SyncManager.ResolveConflict").
		Str("item_uid", itemUID).
		Str("resolution", res.String()).
		Msg("conflict resolved")

	return nil
}

// Close cancels the running pass, waits for it to stop and closes status
// subscriptions. The manager cannot be used afterwards.
func (m *SyncManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.passes.Wait()
	m.status.close()
}

func (m *SyncManager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *SyncManager) beginPass() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false
	}
	m.passes.Add(1)
	return true
}

func (m *SyncManager) setRunning(running bool) {
	m.running.Store(running)
	m.status.publish(m.Status())
}

func (m *SyncManager) runPass() models.SyncResult {
	res := models.SyncResult{
		ID:        m.ids.Generate(),
		StartedAt: time.Now().UTC(),
	}
	if !m.beginPass() {
		res.Status = models.SyncFailed
		res.Err = fmt.Errorf("%w: %w", ErrSyncFatal, ErrSessionClosed)
		res.FinishedAt = time.Now().UTC()
		return res
	}
	defer m.passes.Done()

	log := m.logger.WithPass(res.ID)
	ctx := log.WithContext(utils.WithPassID(m.ctx, res.ID))

	m.setRunning(true)
	log.Debug().Str("func", "SyncManager.runPass").Msg("sync pass started")

	remotes, err := m.remote.ListCollections(ctx)
	if err != nil {
		res.Status = models.SyncFailed
		res.Err = fmt.Errorf("%w: %w: list collections: %w", ErrSyncFatal, classify(err), err)
		return m.finishPass(log, res)
	}

	targets := m.plan(remotes)
	results := make([]models.CollectionResult, len(targets))
	created := make([][]models.ConflictRecord, len(targets))

	var g errgroup.Group
	g.SetLimit(m.maxConcurrent)
	for i, t := range targets {
		g.Go(func() error {
			results[i], created[i] = m.syncCollection(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	res.Collections = results
	for _, c := range created {
		res.NewConflicts = append(res.NewConflicts, c...)
	}
	res.Status, res.Err = outcome(ctx, results)

	// An account without collections has nothing to wait for.
	if res.Status != models.SyncFailed && (res.Succeeded() > 0 || len(targets) == 0) {
		if m.gate.openFor(m.epoch) {
			log.Info().Str("func", "SyncManager.runPass").Msg("sync gate opened")
		}
	}

	return m.finishPass(log, res)
}

func (m *SyncManager) finishPass(log *logger.Logger, res models.SyncResult) models.SyncResult {
	res.FinishedAt = time.Now().UTC()
	m.last.Store(&res)
	m.setRunning(false)

	ev := log.Info()
	if res.Status != models.SyncFull {
		ev = log.Warn().Err(res.Err)
	}
	ev.Str("func", "SyncManager.runPass").
		Str("status", string(res.Status)).
		Int("collections", len(res.Collections)).
		Int("failed", len(res.Failed())).
		Int("new_conflicts", len(res.NewConflicts)).
		Dur("took", res.FinishedAt.Sub(res.StartedAt)).
		Msg("sync pass finished")

	return res
}

// outcome classifies a finished pass. Only total unreachability of the remote
// authority, or the end of the session, fails a pass as a whole.
func outcome(ctx context.Context, results []models.CollectionResult) (models.SyncStatus, error) {
	if ctx.Err() != nil {
		return models.SyncFailed, fmt.Errorf("%w: %w", ErrSyncFatal, ErrSessionClosed)
	}

	var failed, unreachable int
	for _, r := range results {
		if r.OK() {
			continue
		}
		failed++
		if errors.Is(r.Err, ErrRemoteUnavailable) {
			unreachable++
		}
	}

	switch {
	case failed == 0:
		return models.SyncFull, nil
	case unreachable == len(results):
		return models.SyncFailed, fmt.Errorf("%w: %w: no collection reachable", ErrSyncFatal, ErrRemoteUnavailable)
	default:
		return models.SyncPartial, nil
	}
}

// plan lists the collections of a pass: everything the remote announced plus
// cached collections it no longer lists, so their removal is detected.
func (m *SyncManager) plan(remotes []models.RemoteCollection) []target {
	seen := make(map[string]struct{}, len(remotes))
	targets := make([]target, 0, len(remotes))

	for i := range remotes {
		rc := remotes[i]
		if _, dup := seen[rc.UID]; dup || rc.UID == "" {
			continue
		}
		seen[rc.UID] = struct{}{}
		targets = append(targets, target{uid: rc.UID, remote: &rc})
	}
	for _, col := range m.cache.Collections() {
		if _, ok := seen[col.UID]; !ok {
			targets = append(targets, target{uid: col.UID})
		}
	}

	return targets
}

func (m *SyncManager) syncCollection(ctx context.Context, t target) (models.CollectionResult, []models.ConflictRecord) {
	res := models.CollectionResult{CollectionUID: t.uid}
	log := logger.FromContext(ctx).WithCollection(t.uid)

	if t.remote != nil && t.remote.Deleted {
		if err := m.removeCollection(ctx, t.uid); err != nil {
			res.Err = collectionError(t.uid, err)
			return res, nil
		}
		res.Removed = true
		return res, nil
	}

	key, err := m.prepareCollection(ctx, t)
	if err != nil {
		res.Err = collectionError(t.uid, err)
		log.Warn().Err(err).Str("func", "SyncManager.syncCollection").Msg("collection not prepared")
		return res, nil
	}

	var created []models.ConflictRecord
	checkpoint := m.cache.Checkpoint(t.uid)
	res.Checkpoint = checkpoint

	for batch, err := range m.fetcher.FetchChanges(ctx, t.uid, checkpoint) {
		if errors.Is(err, adapter.ErrCollectionNotFound) {
			if rmErr := m.removeCollection(ctx, t.uid); rmErr != nil {
				res.Err = collectionError(t.uid, rmErr)
				return res, created
			}
			res.Removed = true
			return res, created
		}
		if err != nil {
			res.Err = collectionError(t.uid, err)
			log.Warn().Err(err).Str("func", "SyncManager.syncCollection").
				Str("checkpoint", res.Checkpoint).Msg("fetching changes failed")
			return res, created
		}

		conflicts, err := m.applyBatch(ctx, t.uid, key, batch)
		if err != nil {
			res.Err = collectionError(t.uid, err)
			log.Warn().Err(err).Str("func", "SyncManager.syncCollection").
				Str("checkpoint", res.Checkpoint).Msg("batch rejected")
			return res, created
		}

		res.BatchesApplied++
		res.ChangesApplied += len(batch.Changes)
		res.NewConflicts += len(conflicts)
		res.Checkpoint = batch.Checkpoint
		created = append(created, conflicts...)
	}

	log.Debug().Str("func", "SyncManager.syncCollection").
		Int("batches", res.BatchesApplied).
		Str("checkpoint", res.Checkpoint).
		Msg("collection synced")

	return res, created
}

// applyBatch decrypts batch and writes it to the cache in one step. The write
// is detached from ctx: once the batch is decoded it is applied completely,
// and cancellation is honored between batches.
func (m *SyncManager) applyBatch(ctx context.Context, collectionUID string, key []byte, batch models.EncryptedBatch) ([]models.ConflictRecord, error) {
	if key == nil && len(batch.Changes) > 0 {
		return nil, fmt.Errorf("%w: no key for collection %s", crypto.ErrKeyMismatch, collectionUID)
	}

	batch.CollectionUID = collectionUID
	decoded, err := m.reconciler.Decode(m.codec, key, batch)
	if err != nil {
		return nil, err
	}

	var created []models.ConflictRecord
	err = m.cache.Update(context.WithoutCancel(ctx), collectionUID, func(view *store.CollectionView) (models.Mutations, error) {
		mutations, conflicts := m.reconciler.Reconcile(view, decoded)
		created = conflicts
		return mutations, nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// prepareCollection unwraps the collection key and registers the collection
// in the cache. Collections only the cache knows reuse a key unwrapped earlier
// in the session, if any.
func (m *SyncManager) prepareCollection(ctx context.Context, t target) ([]byte, error) {
	if t.remote == nil {
		m.keysMu.Lock()
		defer m.keysMu.Unlock()
		return m.keys[t.uid].key, nil
	}

	key, err := m.collectionKey(*t.remote)
	if err != nil {
		return nil, err
	}

	col := models.Collection{UID: t.remote.UID, KeyID: t.remote.KeyID}
	if len(t.remote.EncryptedMeta) > 0 {
		meta, err := m.codec.DecryptMeta(key, t.remote.UID, t.remote.EncryptedMeta)
		if err != nil {
			return nil, fmt.Errorf("collection meta: %w", err)
		}
		col.Meta = meta
	}

	if err := m.cache.UpsertCollection(ctx, col); err != nil {
		return nil, err
	}

	return key, nil
}

func (m *SyncManager) collectionKey(rc models.RemoteCollection) ([]byte, error) {
	m.keysMu.Lock()
	defer m.keysMu.Unlock()

	if k, ok := m.keys[rc.UID]; ok && k.keyID == rc.KeyID {
		return k.key, nil
	}

	key, err := m.codec.CollectionKey(m.accountKey, rc)
	if err != nil {
		return nil, err
	}
	m.keys[rc.UID] = collectionKey{keyID: rc.KeyID, key: key}
	return key, nil
}

func (m *SyncManager) removeCollection(ctx context.Context, collectionUID string) error {
	if err := m.cache.RemoveCollection(context.WithoutCancel(ctx), collectionUID); err != nil {
		return err
	}

	m.keysMu.Lock()
	delete(m.keys, collectionUID)
	m.keysMu.Unlock()

	logger.FromContext(ctx).WithCollection(collectionUID).Info().
		Str("func", "SyncManager.removeCollection").
		Msg("collection removed remotely, dropped from cache")
	return nil
}
