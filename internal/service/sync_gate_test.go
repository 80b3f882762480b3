// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncGate_StartsClosed(t *testing.T) {
	g := NewSyncGate()
	assert.False(t, g.IsOpen())
}

func TestSyncGate_OpensOnceForCurrentSession(t *testing.T) {
	g := NewSyncGate()
	epoch := g.reset()

	assert.True(t, g.openFor(epoch))
	assert.True(t, g.IsOpen())

	// Later passes of the same session do not transition again.
	assert.False(t, g.openFor(epoch))
	assert.True(t, g.IsOpen())
}

func TestSyncGate_IgnoresPassesOfEndedSession(t *testing.T) {
	g := NewSyncGate()
	old := g.reset()
	g.reset()

	assert.False(t, g.openFor(old))
	assert.False(t, g.IsOpen())
}

func TestSyncGate_ResetCloses(t *testing.T) {
	g := NewSyncGate()
	require.True(t, g.openFor(g.reset()))

	g.reset()
	assert.False(t, g.IsOpen())
}

func TestSyncGate_SubscribersSeeTransitions(t *testing.T) {
	g := NewSyncGate()
	ch, unsubscribe := g.Subscribe()
	defer unsubscribe()

	assert.False(t, <-ch)

	epoch := g.reset()
	g.openFor(epoch)
	assert.True(t, <-ch)

	g.reset()
	assert.False(t, <-ch)
}
