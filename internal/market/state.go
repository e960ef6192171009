package market

import (
	"slices"
	"sync"
	"time"

	"github.com/rickgao/alpaca-sdk/internal/model"
)

// registryState holds the thread-safe asset cache.
type registryState struct {
	mu sync.RWMutex

	filter func(model.Asset) bool

	// All known assets indexed by symbol.
	assets map[string]*model.Asset

	// Symbols passing the filter.
	activeSet map[string]struct{}

	marketOpen bool
	lastSyncAt time.Time

	changes chan AssetChange
}

func newState(filter func(model.Asset) bool) *registryState {
	return &registryState{
		filter:    filter,
		assets:    make(map[string]*model.Asset),
		activeSet: make(map[string]struct{}),
		changes:   make(chan AssetChange, ChangeBufferSize),
	}
}

func (s *registryState) get(symbol string) (model.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[symbol]
	if !ok {
		return model.Asset{}, false
	}
	return *a, true
}

// getActive returns a copy of all active assets.
func (s *registryState) getActive() []model.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Asset, 0, len(s.activeSet))
	for sym := range s.activeSet {
		if a, ok := s.assets[sym]; ok {
			result = append(result, *a)
		}
	}
	return result
}

func (s *registryState) symbols() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.activeSet))
	for sym := range s.activeSet {
		out = append(out, sym)
	}
	s.mu.RUnlock()

	slices.Sort(out)
	return out
}

func (s *registryState) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

func (s *registryState) activeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activeSet)
}

func (s *registryState) isActive(symbol string) bool {
	_, ok := s.activeSet[symbol]
	return ok
}

// upsert adds or updates an asset (write-locked).
func (s *registryState) upsert(a model.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(a)
}

// upsertLocked adds or updates an asset and reports whether it is active
// afterwards. The caller must hold the write lock.
func (s *registryState) upsertLocked(a model.Asset) bool {
	aCopy := a
	s.assets[a.Symbol] = &aCopy

	if s.filter(a) {
		s.activeSet[a.Symbol] = struct{}{}
		return true
	}
	delete(s.activeSet, a.Symbol)
	return false
}

// removeLocked forgets an asset and reports whether it was active.
func (s *registryState) removeLocked(symbol string) bool {
	wasActive := s.isActive(symbol)
	delete(s.assets, symbol)
	delete(s.activeSet, symbol)
	return wasActive
}

// notifyChange sends a change without blocking, dropping the oldest queued
// change when the buffer is full.
func (s *registryState) notifyChange(change AssetChange) {
	select {
	case s.changes <- change:
	default:
		select {
		case <-s.changes:
		default:
		}
		select {
		case s.changes <- change:
		default:
		}
	}
}
