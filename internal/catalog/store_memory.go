package catalog

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*MemStore)(nil)

// MemStore is a Store backed by a map guarded by a single RWMutex. Values are
// copied on the way in and out, so a record is never visible half-written.
type MemStore struct {
	mu sync.RWMutex
	m  map[uuid.UUID]Product
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[uuid.UUID]Product{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemStore) Put(p Product) {
	p = p.clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
}

func (s *MemStore) Get(id uuid.UUID) (Product, bool) {
	s.mu.RLock()
	p, ok := s.m[id]
	s.mu.RUnlock()

	if !ok {
		return Product{}, false
	}
	return p.clone(), true
}

func (s *MemStore) GetAll() []Product {
	s.mu.RLock()
	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	s.mu.RUnlock()

	for i := range out {
		out[i] = out[i].clone()
	}
	slices.SortFunc(out, func(a, b Product) int { return bytes.Compare(a.ID[:], b.ID[:]) })
	return out
}

func (s *MemStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.m)
}

func (s *MemStore) ReplaceIfPresent(p Product) bool {
	p = p.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; !ok {
		return false
	}
	s.m[p.ID] = p
	return true
}

func (s *MemStore) RemoveIfPresent(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false
	}
	delete(s.m, id)
	return true
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
