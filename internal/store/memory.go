package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/flood-monitoring/internal/readings"
)

// entry is one cached pipeline result.
type entry struct {
	series   []readings.Series
	storedAt time.Time
}

// MemoryStore is a concurrency-safe cache of normalized series keyed by
// station and lookback window. The server mode uses it so repeated form
// submissions inside the freshness window do not re-hit the upstream API.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]entry
	maxAge time.Duration
}

// NewMemoryStore creates a cache whose entries expire after maxAge.
// maxAge <= 0 disables caching entirely.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]entry),
		maxAge: maxAge,
	}
}

func key(stationID string, daysBack int) string {
	return fmt.Sprintf("%s:%d", stationID, daysBack)
}

// Put stores the series for a station/window pair.
func (s *MemoryStore) Put(stationID string, daysBack int, series []readings.Series) {
	if s.maxAge <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(stationID, daysBack)] = entry{series: series, storedAt: time.Now()}
}

// Get returns a cached result if one exists and is still fresh.
func (s *MemoryStore) Get(stationID string, daysBack int) ([]readings.Series, bool) {
	if s.maxAge <= 0 {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.data[key(stationID, daysBack)]
	s.mu.RUnlock()

	if !ok || time.Since(e.storedAt) > s.maxAge {
		return nil, false
	}
	return e.series, true
}
