package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/questscribe/internal/logging"
	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/aretw0/questscribe/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to named documents, so concurrent
// load-modify-save cycles on the same name never interleave.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by document name

	locker  ports.DistributedLocker // optional, spans processes
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given document store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
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
// The caller must lock entry.mu, then call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// activeLocks reports how many names currently hold a lock entry.
func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Load retrieves a document from the store.
func (m *Manager) Load(ctx context.Context, name string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, name)
		return err
	})
	return doc, err
}

// LoadOrCreate loads a document, creating and persisting an empty one when the
// name is unknown.
func (m *Manager) LoadOrCreate(ctx context.Context, name string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var (
			found bool
			err   error
		)
		doc, found, err = m.lookup(ctx, name)
		if err != nil || found {
			return err
		}
		if err := m.store.Save(ctx, name, doc); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}
		m.logger.DebugContext(ctx, "document created", "doc", name)
		return nil
	})
	return doc, err
}

// Save persists the document.
func (m *Manager) Save(ctx context.Context, name string, doc *domain.Document) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Save(ctx, name, doc)
	})
}

// Update runs a load-modify-save cycle under the document lock. A missing
// document starts empty. fn's error aborts the save.
func (m *Manager) Update(ctx context.Context, name string, fn func(ctx context.Context, doc *domain.Document) error) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		doc, _, err := m.lookup(ctx, name)
		if err != nil {
			return err
		}
		if err := fn(ctx, doc); err != nil {
			return err
		}
		return m.store.Save(ctx, name, doc)
	})
}

// lookup loads name, returning an empty document and found=false when it does not exist.
func (m *Manager) lookup(ctx context.Context, name string) (*domain.Document, bool, error) {
	doc, err := m.store.Load(ctx, name)
	if err == nil {
		return doc, true, nil
	}
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return &domain.Document{Entities: []domain.Entity{}, Markers: []domain.Marker{}}, false, nil
	}
	return nil, false, fmt.Errorf("failed to check document existence: %w", err)
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Delete(ctx, name)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes fn while holding the lock for the document name.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, name, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"doc", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
