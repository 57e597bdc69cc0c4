package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring that lookup-then-update for a
// conversant is atomic. It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, id)
		return err
	})
	return s, err
}

// LoadOrCreate loads the conversant's session or creates and persists a new
// one. created reports whether the session was created by this call.
// Concurrent calls for the same conversant create at most one session.
func (m *Manager) LoadOrCreate(ctx context.Context, id, contact string) (s *domain.Session, created bool, err error) {
	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		s, created, err = loadOrCreate(ctx, m.store, id, contact)
		return err
	})
	return s, created, err
}

func loadOrCreate(ctx context.Context, store ports.SessionStore, id, contact string) (*domain.Session, bool, error) {
	s, err := store.Load(ctx, id)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}

	s = domain.NewSession(id, contact)
	if err := store.Save(ctx, id, s); err != nil {
		return nil, false, fmt.Errorf("failed to initialize session: %w", err)
	}
	return s, true, nil
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, id string, s *domain.Session) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
// Inside WithLock callbacks, use Store() directly: the lock is not reentrant.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the conversant.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversant_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Transaction is a locked view of one conversant's session.
type Transaction struct {
	ctx   context.Context
	store ports.SessionStore
	id    string
}

// LoadOrCreate behaves like Manager.LoadOrCreate within the held lock.
func (tx *Transaction) LoadOrCreate(contact string) (*domain.Session, bool, error) {
	return loadOrCreate(tx.ctx, tx.store, tx.id, contact)
}

// Load returns the current session or domain.ErrSessionNotFound.
func (tx *Transaction) Load() (*domain.Session, error) {
	return tx.store.Load(tx.ctx, tx.id)
}

// Save commits the session.
func (tx *Transaction) Save(s *domain.Session) error {
	return tx.store.Save(tx.ctx, tx.id, s)
}

// Delete removes the session.
func (tx *Transaction) Delete() error {
	return tx.store.Delete(tx.ctx, tx.id)
}

// Update runs fn with exclusive access to the conversant's session.
func (m *Manager) Update(ctx context.Context, id string, fn func(tx *Transaction) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return fn(&Transaction{ctx: ctx, store: m.store, id: id})
	})
}
