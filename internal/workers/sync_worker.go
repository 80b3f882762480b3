// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/models"
)

// SyncWorker submits a sync pass on every tick of its interval. It waits for
// the submitted pass before the next tick is served, so at most one pass per
// worker is outstanding.
type SyncWorker struct {
	submitter SyncSubmitter
	interval  time.Duration
	logger    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncWorker creates an idle worker. A non-positive interval falls back to
// config.DefaultSyncInterval.
func NewSyncWorker(submitter SyncSubmitter, cfg config.ClientWorkers, logger *logger.Logger) *SyncWorker {
	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}
	return &SyncWorker{submitter: submitter, interval: interval, logger: logger}
}

// Start stops any previously running loop, then launches a goroutine that
// submits a pass every interval until ctx is cancelled or Stop is called.
func (w *SyncWorker) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(w.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				w.tick(jobCtx)
			}
		}
	}()
}

// Stop cancels the loop and blocks until it has exited. No-op when idle.
func (w *SyncWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *SyncWorker) tick(ctx context.Context) {
	out, ok := w.submitter.Submit()
	if !ok {
		return
	}

	select {
	case <-ctx.Done():
	case res, ok := <-out:
		if ok {
			w.report(res)
		}
	}
}

func (w *SyncWorker) report(res models.SyncResult) {
	ev := w.logger.Debug()
	if res.Status != models.SyncFull {
		ev = w.logger.Warn().Err(res.Err)
	}
	ev.Str("func", "SyncWorker.tick").
		Str("pass_id", res.ID).
		Str("status", string(res.Status)).
		Int("failed", len(res.Failed())).
		Msg("periodic sync finished")
}
