package repository

import "sync"

type (
	// SessionStore caches verified raw ID tokens against the user identity
	// they resolved to, so a token is only sent to the verifier once.
	SessionStore interface {
		Put(rawToken, userID string)
		Lookup(rawToken string) (string, bool)
	}

	InMemorySessions struct {
		mu    sync.RWMutex
		table map[string]string
	}
)

func NewSessionStore() *InMemorySessions {
	return &InMemorySessions{table: make(map[string]string)}
}

func (s *InMemorySessions) Put(rawToken, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[rawToken] = userID
}

func (s *InMemorySessions) Lookup(rawToken string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.table[rawToken]
	return userID, ok
}
