package middleware_test

import (
	"context"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Session),
	}
}

func (s *MockStore) Save(ctx context.Context, conversantID string, session *domain.Session) error {
	s.data[conversantID] = *session
	return nil
}

func (s *MockStore) Load(ctx context.Context, conversantID string) (*domain.Session, error) {
	session, ok := s.data[conversantID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *MockStore) Delete(ctx context.Context, conversantID string) error {
	delete(s.data, conversantID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SessionStore = (*MockStore)(nil)
