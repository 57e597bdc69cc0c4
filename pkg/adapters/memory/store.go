package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Session
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Session),
	}
}

// Save persists a copy of the session in memory.
func (s *Store) Save(ctx context.Context, conversantID string, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversantID] = *session
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, conversantID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[conversantID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// session is already a copy, callers can't reach the stored value.
	return &session, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, conversantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversantID)
	return nil
}

// List returns the conversants with a conversation in progress.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
