package store

import (
	"errors"
	"os"
	"sort"
	"sync"

	"github.com/karliky/turrero-pipeline/internal/types"
)

// EnrichedStore is the append-only store of enrichment results. A record's
// presence (keyed by post ID) is the idempotence marker: posts already here
// are skipped on subsequent runs.
//
// Appends are serialized with a mutex so concurrent enrichment tasks cannot
// lose updates; the file itself is only written by Save.
type EnrichedStore struct {
	mu      sync.Mutex
	path    string
	records []types.EnrichedRecord
	index   map[string]int
}

// OpenEnriched loads the enriched store from path. A missing file is an
// empty store, not an error: first runs start from nothing.
func OpenEnriched(path string) (*EnrichedStore, error) {
	s := &EnrichedStore{
		path:  path,
		index: make(map[string]int),
	}

	records, err := ReadJSON[[]types.EnrichedRecord](path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	for _, r := range records {
		if _, dup := s.index[r.ID]; dup {
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}

	return s, nil
}

// Has reports whether a record for the given post ID is already stored.
func (s *EnrichedStore) Has(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[postID]
	return ok
}

// Append adds a record unless one with the same ID already exists. Returns
// true when the record was added.
func (s *EnrichedStore) Append(r types.EnrichedRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[r.ID]; dup {
		return false
	}
	s.index[r.ID] = len(s.records)
	s.records = append(s.records, r)
	return true
}

// Records returns a copy of the stored records in a stable order (by ID),
// so repeated runs over unchanged input serialize identically.
func (s *EnrichedStore) Records() []types.EnrichedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.EnrichedRecord, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of stored records.
func (s *EnrichedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Save persists the store atomically.
func (s *EnrichedStore) Save() error {
	return WriteJSON(s.path, s.Records())
}
