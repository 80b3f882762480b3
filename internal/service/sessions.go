// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-note-sync/internal/adapter"
	"github.com/MKhiriev/go-note-sync/internal/config"
	"github.com/MKhiriev/go-note-sync/internal/crypto"
	"github.com/MKhiriev/go-note-sync/internal/logger"
	"github.com/MKhiriev/go-note-sync/internal/utils"
	"github.com/MKhiriev/go-note-sync/models"
)

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Remote  adapter.RemoteStore
	Fetcher ChangeFetcher
	Codec   crypto.Codec
	Caches  CacheFactory
	IDs     IDGenerator
	Sync    config.ClientSync
}

// Sessions is the process-wide registry of the authenticated session. It owns
// the sync gate and hands out at most one live SyncManager at a time.
type Sessions struct {
	deps   Dependencies
	gate   *SyncGate
	base   context.Context
	logger *logger.Logger

	mu      sync.Mutex
	current *SyncManager
	key     string
}

// NewSessions builds the registry. Session contexts derive from ctx, so
// cancelling ctx ends every session.
func NewSessions(ctx context.Context, deps Dependencies, logger *logger.Logger) (*Sessions, error) {
	if deps.Remote == nil || deps.Fetcher == nil || deps.Codec == nil || deps.Caches == nil {
		return nil, errors.New("sessions: remote, fetcher, codec and caches are required")
	}
	if deps.IDs == nil {
		deps.IDs = utils.NewUUIDGenerator()
	}
	if deps.Sync.MaxConcurrent <= 0 {
		deps.Sync.MaxConcurrent = config.DefaultMaxConcurrent
	}

	return &Sessions{
		deps:   deps,
		gate:   NewSyncGate(),
		base:   ctx,
		logger: logger,
	}, nil
}

// Manager returns the sync manager of creds. The same credentials get the same
// manager; new credentials invalidate the previous session (its passes are
// cancelled and the gate closes) before a fresh manager is built.
func (s *Sessions) Manager(ctx context.Context, creds models.Credentials) (*SyncManager, error) {
	if !creds.Valid() {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := creds.SessionKey()
	if s.current != nil && s.key == key {
		return s.current, nil
	}

	s.endLocked()
	epoch := s.gate.reset()

	cache, err := s.deps.Caches(ctx, creds.Login)
	if err != nil {
		return nil, fmt.Errorf("open cache of %s: %w", creds.Login, err)
	}
	s.deps.Remote.SetToken(creds.Token)

	sessionCtx, cancel := context.WithCancel(s.base)
	m := &SyncManager{
		accountKey:    append([]byte(nil), creds.AccountKey...),
		remote:        s.deps.Remote,
		fetcher:       s.deps.Fetcher,
		codec:         s.deps.Codec,
		cache:         cache,
		reconciler:    NewReconciler(s.deps.IDs),
		gate:          s.gate,
		epoch:         epoch,
		ids:           s.deps.IDs,
		logger:        s.logger.GetChildLogger(),
		maxConcurrent: s.deps.Sync.MaxConcurrent,
		ctx:           sessionCtx,
		cancel:        cancel,
		keys:          make(map[string]collectionKey),
		status:        newBroadcaster[models.ManagerStatus](),
	}

	s.current, s.key = m, key

	s.logger.Info().
		Str("func", "Sessions.Manager").
		Str("login", creds.Login).
		Int("cached_collections", len(cache.Collections())).
		Msg("session started")

	return m, nil
}

// Current returns the live manager, if a session is active.
func (s *Sessions) Current() (*SyncManager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Submit starts a pass on the live session. ok is false when nobody is logged
// in.
func (s *Sessions) Submit() (<-chan models.SyncResult, bool) {
	m, ok := s.Current()
	if !ok {
		return nil, false
	}
	return m.Submit(), true
}

// Gate returns the process-wide sync gate.
func (s *Sessions) Gate() *SyncGate {
	return s.gate
}

// Logout ends the live session: running passes are cancelled, the gate
// closes and the bearer token is dropped. It is a no-op without a session.
func (s *Sessions) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.endLocked()
	s.gate.reset()

	s.logger.Info().Str("func", "Sessions.Logout").Msg("session ended")
}

func (s *Sessions) endLocked() {
	if s.current == nil {
		return
	}
	s.current.Close()
	s.current, s.key = nil, ""
	s.deps.Remote.SetToken("")
}
