// Package handlers provides HTTP handlers for the docmill API.
package handlers

import "sync"

// ModelStore holds the currently selected inference model. Reads and writes
// can arrive from concurrent requests.
type ModelStore struct {
	mu    sync.RWMutex
	model string
}

// NewModelStore creates a store seeded with the configured default model.
func NewModelStore(model string) *ModelStore {
	return &ModelStore{model: model}
}

// Current returns the selected model name.
func (s *ModelStore) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Set replaces the selected model name.
func (s *ModelStore) Set(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}
