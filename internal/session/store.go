package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"opsdesk/internal/storage"
)

var ErrNotFound = errors.New("session not found")

// Store persists visitor state by session id.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State) error
	Delete(ctx context.Context, id string) error
	// Purge drops expired sessions and returns how many were removed.
	Purge(ctx context.Context) (int, error)
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Each save extends the idle expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return State{}, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return State{}, ErrNotFound
	}
	return cloneState(e.state), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = memoryEntry{state: cloneState(st), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Purge(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func cloneState(st State) State {
	out := st
	if st.Cart != nil {
		out.Cart = append(st.Cart[:0:0], st.Cart...)
	}
	if st.Flash != nil {
		f := *st.Flash
		out.Flash = &f
	}
	return out
}

// SQLiteStore persists sessions as JSON rows so carts survive restarts.
type SQLiteStore struct {
	repo *storage.SQLiteRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewSQLiteStore(repo *storage.SQLiteRepository, ttl time.Duration) *SQLiteStore {
	return &SQLiteStore{repo: repo, ttl: ttl, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (State, error) {
	data, _, err := s.repo.LoadSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return st, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.repo.SaveSession(ctx, id, data, s.now().Add(s.ttl))
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func (s *SQLiteStore) Purge(ctx context.Context) (int, error) {
	n, err := s.repo.PurgeExpiredSessions(ctx)
	return int(n), err
}
