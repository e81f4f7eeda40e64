package client

import "sync"

// Session holds the bearer token shared by every service client. The auth
// layer sets and clears it; clients only read it.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) ClearToken() {
	s.SetToken("")
}
