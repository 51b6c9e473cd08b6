// File: internal/store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

// MemoryStore is the default BindingStore: process-local, safe for concurrent
// use, records deep-copied on the way in and out so callers can mutate their
// working copy freely.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*schemas.PageBindings
	log     *zap.Logger
}

var _ schemas.BindingStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory bindings store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*schemas.PageBindings),
		log:     logger.Named("store.memory"),
	}
}

// Get returns the record with the given id, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*schemas.PageBindings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(rec), nil
}

// Put stores the record, rejecting writes whose version does not advance past
// the stored one.
func (s *MemoryStore) Put(ctx context.Context, record *schemas.PageBindings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.ID]; ok && record.Version <= existing.Version {
		s.log.Warn("Rejecting stale bindings write",
			zap.String("id", record.ID),
			zap.Int("stored_version", existing.Version),
			zap.Int("incoming_version", record.Version))
		return ErrVersionConflict
	}
	s.records[record.ID] = clone(record)
	return nil
}

// Query finds the record whose URL pattern is a substring of the hostname,
// preferring the most recently updated match.
func (s *MemoryStore) Query(ctx context.Context, hostname string) (*schemas.PageBindings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *schemas.PageBindings
	for _, rec := range s.records {
		if !patternMatches(hostname, rec.URLPattern) {
			continue
		}
		if best == nil || rec.UpdatedAt.After(best.UpdatedAt) {
			best = rec
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return clone(best), nil
}

// List returns every stored record, freshest first.
func (s *MemoryStore) List(ctx context.Context) ([]*schemas.PageBindings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*schemas.PageBindings, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, clone(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Clear removes all records.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*schemas.PageBindings)
	return nil
}

// ClearPattern removes records whose URL pattern matches the given pattern.
func (s *MemoryStore) ClearPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if patternMatches(rec.URLPattern, pattern) || patternMatches(pattern, rec.URLPattern) {
			delete(s.records, id)
		}
	}
	return nil
}

// patternMatches implements the lookup rule: the stored pattern must be a
// substring of the hostname, so "linkedin.com" matches "www.linkedin.com".
func patternMatches(hostname, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(hostname), strings.ToLower(pattern))
}

func clone(b *schemas.PageBindings) *schemas.PageBindings {
	out := *b
	out.DetailsContent = append([]string(nil), b.DetailsContent...)
	out.Filters = cloneMap(b.Filters)
	out.Elements = cloneMap(b.Elements)
	out.States = cloneStates(b.States)
	return &out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStates(s schemas.StateBindings) schemas.StateBindings {
	cp := func(c *schemas.StateCondition) *schemas.StateCondition {
		if c == nil {
			return nil
		}
		v := *c
		return &v
	}
	return schemas.StateBindings{
		PageLoaded:    cp(s.PageLoaded),
		ListLoaded:    cp(s.ListLoaded),
		ListUpdated:   cp(s.ListUpdated),
		DetailsLoaded: cp(s.DetailsLoaded),
		NoMoreItems:   cp(s.NoMoreItems),
	}
}
