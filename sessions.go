package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	sessionName      = "session"
	revokedCacheSize = 10_000
	keyUserID        = "user_id"
	keyEmail         = "email"
	keyName          = "name"
	keySessionID     = "session_id"
	keyLastActivity  = "last_activity"
)

type AuthState int

const (
	AuthLoading AuthState = iota
	AuthUnauthenticated
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthLoading:
		return "loading"
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Principal is the authenticated user attached to a request.
type Principal struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// SessionManager resolves the auth state of a request from its session
// cookie. It reports AuthLoading until Init is called and again after Close.
type SessionManager struct {
	store       *sessions.CookieStore
	idleTimeout time.Duration
	revoked     *expirable.LRU[string, struct{}]
	ready       atomic.Bool
	now         func() time.Time
}

func newSessionManager(secret []byte, idleTimeout time.Duration, secure bool) *SessionManager {
	store := sessions.NewCookieStore(secret)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode

	// a revoked id only has to outlive the idle timeout of its session
	return &SessionManager{
		store:       store,
		idleTimeout: idleTimeout,
		revoked:     expirable.NewLRU[string, struct{}](revokedCacheSize, nil, idleTimeout),
		now:         time.Now,
	}
}

func (m *SessionManager) Init() {
	m.ready.Store(true)
}

func (m *SessionManager) Close() {
	m.ready.Store(false)
	m.revoked.Purge()
}

// Resolve returns the auth state of the request and, when authenticated,
// refreshes the idle timer on the response.
func (m *SessionManager) Resolve(w http.ResponseWriter, r *http.Request) (AuthState, *Principal) {
	if !m.ready.Load() {
		return AuthLoading, nil
	}

	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return AuthUnauthenticated, nil
	}

	userID, ok := session.Values[keyUserID].(string)
	if !ok || userID == "" {
		return AuthUnauthenticated, nil
	}
	sessionID, _ := session.Values[keySessionID].(string)
	if m.revoked.Contains(sessionID) {
		return AuthUnauthenticated, nil
	}

	lastActivity, ok := session.Values[keyLastActivity].(int64)
	if !ok || m.now().Sub(time.Unix(lastActivity, 0)) > m.idleTimeout {
		session.Options.MaxAge = -1
		session.Save(r, w)
		return AuthUnauthenticated, nil
	}

	session.Values[keyLastActivity] = m.now().Unix()
	session.Save(r, w)

	email, _ := session.Values[keyEmail].(string)
	name, _ := session.Values[keyName].(string)
	return AuthAuthenticated, &Principal{UserID: userID, Email: email, Name: name}
}

// Start writes a fresh session for u.
func (m *SessionManager) Start(w http.ResponseWriter, r *http.Request, u *User) error {
	session, _ := m.store.Get(r, sessionName)
	session.Values[keyUserID] = u.ID
	session.Values[keyEmail] = u.Email
	session.Values[keyName] = u.Name
	session.Values[keySessionID] = uuid.NewString()
	session.Values[keyLastActivity] = m.now().Unix()
	session.Options.MaxAge = m.store.Options.MaxAge
	return session.Save(r, w)
}

// End revokes the current session id and clears the cookie.
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, sessionName)
	if sessionID, ok := session.Values[keySessionID].(string); ok {
		m.revoked.Add(sessionID, struct{}{})
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
