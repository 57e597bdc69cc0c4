package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/aretw0/ouvidoria/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data  map[string]domain.Session
	mu    sync.Mutex
	saves atomic.Int32
}

func (s *SlowStore) Save(ctx context.Context, conversantID string, sess *domain.Session) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.Session)
	}
	s.data[conversantID] = *sess
	s.saves.Add(1)
	return nil
}

func (s *SlowStore) Load(ctx context.Context, conversantID string) (*domain.Session, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[conversantID]; ok {
		return &sess, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, conversantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversantID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestManager_UpdateSerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, _, err := manager.LoadOrCreate(ctx, id, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	writers := 10

	// Each writer appends one character to the name. Lost updates would
	// leave the name shorter than the number of writers.
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, func(tx *session.Transaction) error {
				s, err := tx.Load()
				if err != nil {
					return err
				}
				s.Record.Name += "x"
				return tx.Save(s)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.Record.Name, writers)
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	var created atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, isNew, err := manager.LoadOrCreate(ctx, id, "+55 11 90000-0000")
			assert.NoError(t, err)
			assert.NotNil(t, s)
			if isNew {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one caller creates the session")
	assert.Equal(t, int32(1), store.saves.Load())

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingName, s.State)
	assert.Equal(t, "+55 11 90000-0000", s.Contact)
}

func TestManager_DeleteThenRecreate(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	s, _, err := manager.LoadOrCreate(ctx, "c1", "")
	require.NoError(t, err)
	s.State = domain.StateAwaitingConfirmation
	require.NoError(t, manager.Save(ctx, "c1", s))

	require.NoError(t, manager.Delete(ctx, "c1"))
	_, err = manager.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	s, created, err := manager.LoadOrCreate(ctx, "c1", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.StateAwaitingName, s.State)
}

type fakeLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	err     error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.locks.Add(1)
	return func(context.Context) error {
		f.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Second))

	_, _, err := manager.LoadOrCreate(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())
}

func TestManager_DistributedLockerFailure(t *testing.T) {
	boom := errors.New("redis down")
	manager := session.NewManager(&SlowStore{}, session.WithLocker(&fakeLocker{err: boom}))

	called := false
	err := manager.WithLock(context.Background(), "c1", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}
