package dialogue

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrNoSession is returned when the user has no active dialogue
var ErrNoSession = errors.New("no active dialogue")

// SessionData holds the answers collected so far
type SessionData struct {
	Dietary   []string `json:"dietary,omitempty"`
	Skill     string   `json:"skill,omitempty"`
	Disliked  []string `json:"disliked,omitempty"`
	Budget    string   `json:"budget,omitempty"`
	Cuisine   string   `json:"cuisine,omitempty"`
	Meal      string   `json:"meal,omitempty"`
	Servings  int      `json:"servings,omitempty"`
	TimeLimit int      `json:"time_limit,omitempty"`
}

// Session is one user's in-progress dialogue. It is discarded when the
// dialogue ends.
type Session struct {
	UserID    int64       `json:"user_id"`
	Flow      Flow        `json:"flow"`
	Step      int         `json:"step"`
	Data      SessionData `json:"data"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.Data.Dietary = slices.Clone(s.Data.Dietary)
	c.Data.Disliked = slices.Clone(s.Data.Disliked)
	return &c
}

// SessionStore persists sessions between user turns
type SessionStore interface {
	Load(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]*Session
}

// NewMemoryStore creates a store whose sessions expire after ttl of inactivity
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[int64]*Session),
	}
}

func (m *MemoryStore) Load(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl {
		delete(m.sessions, userID)
		return nil, ErrNoSession
	}
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := s.clone()
	c.UpdatedAt = m.now()
	m.sessions[s.UserID] = c
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}
