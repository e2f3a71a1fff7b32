package client

import "sync"

// Session carries the default bearer token attached to every request of the
// client that owns it. It is passed explicitly instead of mutating shared
// client headers.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns an empty session
func NewSession() *Session {
	return &Session{}
}

// SetToken sets the default bearer token
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the default bearer token, or "" when none is set
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear drops the default bearer token
func (s *Session) Clear() {
	s.SetToken("")
}
