// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"sync"
	"sync/atomic"
)

// SyncGate tells the presentation layer whether the cache holds data from at
// least one successful pass of the current session.
//
// It starts closed. It opens on the first successful pass after login and
// closes again on logout (or a new login). A failed pass never closes it.
type SyncGate struct {
	open atomic.Bool

	mu    sync.Mutex
	epoch uint64
	subs  *broadcaster[bool]
}

// NewSyncGate returns a closed gate.
func NewSyncGate() *SyncGate {
	return &SyncGate{subs: newBroadcaster[bool]()}
}

// IsOpen is a lock-free read of the gate state.
func (g *SyncGate) IsOpen() bool {
	return g.open.Load()
}

// Subscribe returns a channel that receives the current state and then every
// transition. The returned func unsubscribes.
func (g *SyncGate) Subscribe() (<-chan bool, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subs.subscribe(g.open.Load())
}

// reset closes the gate and starts a new session epoch. Opens requested for an
// older epoch are ignored from now on.
func (g *SyncGate) reset() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.epoch++
	if g.open.Swap(false) {
		g.subs.publish(false)
	}
	return g.epoch
}

// openFor opens the gate if epoch is still the current session. It reports
// whether this call performed the closed->open transition.
func (g *SyncGate) openFor(epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if epoch != g.epoch || g.open.Load() {
		return false
	}
	g.open.Store(true)
	g.subs.publish(true)
	return true
}
