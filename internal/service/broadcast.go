// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "sync"

// broadcaster fans a value out to subscribers. Each subscriber channel holds
// at most one pending value: a slow reader only ever sees the latest one, and
// publishing never blocks.
type broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	closed bool
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[chan T]struct{})}
}

// subscribe registers a subscriber primed with initial. The returned func
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *broadcaster[T]) subscribe(initial T) (<-chan T, func()) {
	ch := make(chan T, 1)
	ch <- initial

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Replace the stale pending value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// close closes every subscriber channel; later subscribers get a closed
// channel.
func (b *broadcaster[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
