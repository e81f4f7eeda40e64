// Package auth holds the process-wide session: the signed-in user and their
// access token, persisted to local storage and pushed into every HTTP
// client session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/service"
	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/validation"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// Authenticator exchanges credentials for a token and user.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, service.User, error)
}

// Storage is the local key/value store the session is persisted in.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Manager owns the session state. The user and token are always set and
// cleared together.
type Manager struct {
	svc      Authenticator
	store    Storage
	sessions []*client.Session
	now      func() time.Time

	mu        sync.RWMutex
	user      *service.User
	token     string
	loading   bool
	lastErr   string
	listeners []func(userID string)
}

func NewManager(svc Authenticator, store Storage, sessions ...*client.Session) *Manager {
	return &Manager{
		svc:      svc,
		store:    store,
		sessions: sessions,
		now:      time.Now,
		loading:  true,
	}
}

// OnUserChange registers fn to run with the new user id ("" when signed
// out) after every transition.
func (m *Manager) OnUserChange(fn func(userID string)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Init restores a persisted session. The token and user are restored only
// when both are present, the user record parses, and the token has not
// expired; otherwise both keys are cleared.
func (m *Manager) Init(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	token, okToken, errToken := m.store.GetItem(tokenKey)
	rawUser, okUser, errUser := m.store.GetItem(userKey)
	if err := errors.Join(errToken, errUser); err != nil {
		slog.Warn("reading persisted session", "error", err)
		return
	}
	if !okToken || !okUser || token == "" {
		m.clear()
		return
	}

	var user service.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		slog.Debug("persisted user is malformed, clearing session", "error", err)
		m.clear()
		return
	}
	if m.expired(token) {
		slog.Info("persisted token expired, clearing session")
		m.clear()
		return
	}

	m.set(token, &user)
}

// expired reads the exp claim without verifying the signature; only the
// backend can verify it. Opaque tokens are treated as live.
func (m *Manager) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(m.now())
}

// Login signs in and persists the session. It never returns an error:
// failures are logged, kept for LastError, and reported as false.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	if err := validation.Struct(credentials{Email: email, Password: password}); err != nil {
		m.fail(err)
		return false
	}

	token, user, err := m.svc.Login(ctx, email, password)
	if err != nil {
		slog.Warn("login failed", "email", email, "error", err)
		m.fail(err)
		return false
	}

	data, err := json.Marshal(user)
	if err == nil {
		err = errors.Join(m.store.SetItem(tokenKey, token), m.store.SetItem(userKey, string(data)))
	}
	if err != nil {
		slog.Warn("persisting session", "error", err)
		m.fail(err)
		return false
	}

	m.set(token, &user)
	return true
}

// Logout clears memory, local storage and every client session.
func (m *Manager) Logout() {
	m.clear()
}

func (m *Manager) fail(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}

func (m *Manager) set(token string, user *service.User) {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.lastErr = ""
	listeners := append([]func(string){}, m.listeners...)
	m.mu.Unlock()

	for _, s := range m.sessions {
		s.SetToken(token)
	}
	for _, fn := range listeners {
		fn(user.ID)
	}
}

func (m *Manager) clear() {
	if err := errors.Join(m.store.RemoveItem(tokenKey), m.store.RemoveItem(userKey)); err != nil {
		slog.Warn("clearing persisted session", "error", err)
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	listeners := append([]func(string){}, m.listeners...)
	m.mu.Unlock()

	for _, s := range m.sessions {
		s.ClearToken()
	}
	for _, fn := range listeners {
		fn("")
	}
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.token != ""
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *service.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// UserID returns the signed-in user's id, or "" for a guest.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.ID
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Loading reports whether Init has not finished yet.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// LastError returns the message of the most recent failed Login.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}
