// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package config

import (
	"sync"

	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

// Manager owns the mutable process-wide settings and notifies subscribers on
// change. Components read the current settings per operation, so a change
// takes effect on the next call and never retroactively.
type Manager struct {
	mu      sync.RWMutex
	current Settings
	subs    []chan Settings
}

// NewManager creates a Manager seeded with the given settings.
func NewManager(initial Settings) *Manager {
	return &Manager{current: initial}
}

// Current returns a copy of the active settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe returns a channel that receives every settings update. The
// channel is buffered; a subscriber that lags only sees the latest update.
func (m *Manager) Subscribe() <-chan Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Settings, 1)
	m.subs = append(m.subs, ch)
	return ch
}

// Update validates and installs new settings, then notifies all subscribers.
func (m *Manager) Update(next Settings) error {
	if errs := next.Validate(); len(errs) > 0 {
		return clipderr.Errorf(clipderr.CodeConfigValidateInvalidValue, "rejecting settings update: %v", errs)
	}

	m.mu.Lock()
	m.current = next
	subs := make([]chan Settings, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		// Drop the stale pending update, if any, so the channel always
		// holds the most recent settings.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
	return nil
}
