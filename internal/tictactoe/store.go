package tictactoe

import (
	"context"
	"strings"
	"sync"
	"time"
)

// UpdateFunc computes the next state of a session. Returning remove=true deletes the
// session instead of storing next. A non-nil error leaves the stored session untouched.
type UpdateFunc func(cur Session) (next Session, remove bool, err error)

// Store is the registry of live sessions, one per key.
type Store interface {
	Create(ctx context.Context, key string, p1, p2 PlayerID) (Session, error)
	Get(ctx context.Context, key string) (Session, error)
	// Remove is idempotent.
	Remove(ctx context.Context, key string) error
	// Update runs fn with exclusive access to key's session.
	Update(ctx context.Context, key string, fn UpdateFunc) (Session, error)
}

// MemoryStore keeps sessions in process memory. Operations on the same key are
// serialized by a per-key lock; different keys never wait on each other.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	locks    keyLocks
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		locks:    keyLocks{held: make(map[string]*keyLock)},
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, key string, p1, p2 PlayerID) (Session, error) {
	key = normalizeKey(key)
	if key == "" {
		return Session{}, ErrInvalidArgs
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	unlock := m.locks.lock(key)
	defer unlock()

	m.mu.RLock()
	_, exists := m.sessions[key]
	m.mu.RUnlock()
	if exists {
		return Session{}, ErrAlreadyExists
	}

	s := NewSession(key, p1, p2)
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.put(key, s)
	return s.clone(), nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	s, ok := m.sessions[normalizeKey(key)]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = normalizeKey(key)
	unlock := m.locks.lock(key)
	defer unlock()
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	key = normalizeKey(key)
	unlock := m.locks.lock(key)
	defer unlock()

	m.mu.RLock()
	cur, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}

	next, remove, err := fn(cur.clone())
	if err != nil {
		return Session{}, err
	}
	if remove {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return next, nil
	}
	next.Key = key
	next.UpdatedAt = m.now()
	m.put(key, next)
	return next.clone(), nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) put(key string, s Session) {
	m.mu.Lock()
	m.sessions[key] = s
	m.mu.Unlock()
}

func normalizeKey(key string) string { return strings.TrimSpace(key) }

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// keyLocks hands out one mutex per key and forgets it once nobody holds or waits on it.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.held[key]
	if !ok {
		l = &keyLock{}
		k.held[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.held)
}
