package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/questscribe/pkg/domain"
)

// Store implements ports.DocumentStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Document
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Document),
	}
}

// Save persists a deep copy of the document.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return nil
}

// Load retrieves a copy of the document so callers can't mutate the stored one.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return doc.Clone(), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the stored document names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
