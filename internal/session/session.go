package session

import (
	"context"
	"sync"
	"time"

	"tillpos/backend/internal/cart"
)

// Session is the per-user till state kept between requests.
type Session struct {
	Cart              cart.Cart `json:"cart"`
	TaxApplied        bool      `json:"tax_applied"`
	LastTransactionID int64     `json:"last_transaction_id,omitempty"`
}

type Store interface {
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, key string, sess *Session) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps sessions in process. Entries expire after ttl of
// inactivity; a zero ttl keeps them forever.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		delete(s.entries, key)
		return &Session{}, nil
	}
	sess := cloneSession(entry.session)
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, sess *Session) error {
	if sess == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{session: cloneSession(*sess)}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func cloneSession(src Session) Session {
	dst := src
	dst.Cart.Lines = make([]cart.Line, len(src.Cart.Lines))
	copy(dst.Cart.Lines, src.Cart.Lines)
	return dst
}
