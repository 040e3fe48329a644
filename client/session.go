package client

import "sync"

// TokenKey is the storage key under which the session token is persisted.
const TokenKey = "token"

// Routes of the presentation layer that need no session.
const (
	RouteHome     = "/"
	RouteLogin    = "/login"
	RouteRegister = "/register"
)

// TokenStore persists the session token between requests.
type TokenStore interface {
	Token() string
	SetToken(token string)
	ClearToken()
}

// Navigator lets the session force the presentation layer back to login.
type Navigator interface {
	CurrentRoute() string
	Navigate(route string)
}

// IsUnauthenticatedRoute reports whether route is reachable without a session.
func IsUnauthenticatedRoute(route string) bool {
	switch route {
	case RouteHome, RouteLogin, RouteRegister:
		return true
	}
	return false
}

// Session owns the credential of one signed-in user. It starts when login
// succeeds and ends on logout or when the backend rejects the token.
type Session struct {
	store TokenStore
	nav   Navigator
}

func NewSession(store TokenStore, nav Navigator) *Session {
	return &Session{store: store, nav: nav}
}

func (s *Session) Token() string {
	if s == nil || s.store == nil {
		return ""
	}
	return s.store.Token()
}

// Authenticated reports token presence only; the backend validates it lazily.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) Begin(token string) {
	if s == nil || s.store == nil {
		return
	}
	s.store.SetToken(token)
}

func (s *Session) End() {
	if s == nil || s.store == nil {
		return
	}
	s.store.ClearToken()
}

// expired clears the credential and, unless the user is already on an
// unauthenticated route, sends them to the login route.
func (s *Session) expired() {
	if s == nil {
		return
	}
	s.End()
	if s.nav != nil && !IsUnauthenticatedRoute(s.nav.CurrentRoute()) {
		s.nav.Navigate(RouteLogin)
	}
}

// MemoryTokenStore keeps the token in memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokenStore) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MemoryTokenStore) ClearToken() {
	m.SetToken("")
}
