// Package cache provides routing.Cache implementations.
package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/pkg/core"
)

// Verify Memory implements routing.Cache at compile time.
var _ routing.Cache = (*Memory)(nil)

// Memory keeps computed paths in a map. When full, the oldest entry is
// evicted first.
type Memory struct {
	maxEntries int

	mu    sync.RWMutex
	items map[string][]core.Point
	order []string
}

// NewMemory creates a memory cache. A non-positive maxEntries means no limit.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		maxEntries: maxEntries,
		items:      make(map[string][]core.Point),
	}
}

// Get implements routing.Cache.
func (m *Memory) Get(_ context.Context, key string) ([]core.Point, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(p), true, nil
}

// Put implements routing.Cache.
func (m *Memory) Put(_ context.Context, key string, path []core.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		m.order = append(m.order, key)
	}
	m.items[key] = slices.Clone(path)

	for m.maxEntries > 0 && len(m.order) > m.maxEntries {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.items, oldest)
	}
	return nil
}

// Len returns the number of cached paths.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
