// Package session holds authenticated user sessions in a bounded in-memory
// store. Sessions never survive a process restart.
package session

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mkwiatek/mailfan/pkg"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 100

// Session is one authenticated user with the provider credentials needed
// to send mail on their behalf.
type Session struct {
	Token      string
	Email      string
	Name       string
	OAuthToken *oauth2.Token
	CreatedAt  time.Time
}

// Store is the session store consulted by authenticated request handlers.
type Store interface {
	Create(email, name string, tok *oauth2.Token) (string, error)
	Lookup(token string) (*Session, bool)
	Delete(token string)
}

type entry struct {
	session *Session
	elem    *list.Element
}

// MemoryStore is a capacity-bounded Store. When a Create pushes the store
// past capacity, the earliest-inserted session is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // token strings, oldest at front
	sessions map[string]*entry
}

// NewMemoryStore creates a MemoryStore holding at most capacity sessions.
// A capacity below 1 falls back to DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		order:    list.New(),
		sessions: make(map[string]*entry),
	}
}

// Create stores a new session and returns its opaque token, evicting the
// oldest session if the store would exceed capacity.
func (s *MemoryStore) Create(email, name string, tok *oauth2.Token) (string, error) {
	token, err := pkg.RandToken(32)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = &entry{
		session: &Session{
			Token:      token,
			Email:      email,
			Name:       name,
			OAuthToken: tok,
			CreatedAt:  time.Now(),
		},
		elem: s.order.PushBack(token),
	}

	if len(s.sessions) > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.sessions, oldest.Value.(string))
	}

	return token, nil
}

// Lookup returns the session for token, if any.
func (s *MemoryStore) Lookup(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Delete removes the session for token. Unknown tokens are a no-op.
func (s *MemoryStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[token]
	if !ok {
		return
	}
	s.order.Remove(e.elem)
	delete(s.sessions, token)
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
