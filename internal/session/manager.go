package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/google/uuid"
)

// ErrSessionEnded is returned by Resume for a session that was logged out
// while its access token is still unexpired.
var ErrSessionEnded = errors.New("session has ended")

// Manager owns the live sessions by id.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	ended      map[string]time.Time
	endedUsers map[int64]time.Time
	registry   *notification.Registry
	now        func() time.Time
}

func NewManager(registry *notification.Registry) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		ended:      make(map[string]time.Time),
		endedUsers: make(map[int64]time.Time),
		registry:   registry,
		now:        time.Now,
	}
}

// Create starts a session for user and loads their notification feed.
func (m *Manager) Create(ctx context.Context, user model.User) (*Session, error) {
	return m.open(ctx, uuid.NewString(), user)
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Resume returns the session named by claims, rebuilding it when the server
// has restarted since the token was issued.
func (m *Manager) Resume(ctx context.Context, claims *auth.Claims) (*Session, error) {
	if claims.SessionID == "" {
		return nil, fmt.Errorf("token carries no session")
	}
	if m.refused(claims) {
		return nil, ErrSessionEnded
	}
	if s, ok := m.Get(claims.SessionID); ok {
		s.refresh(claims.Name, claims.Role, m.now())
		return s, nil
	}
	user := model.User{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return m.open(ctx, claims.SessionID, user)
}

// refused reports whether claims belong to a logged out session or to a
// user whose sessions were all ended after the token was issued.
func (m *Manager) refused(claims *auth.Claims) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.ended[claims.SessionID]; ok {
		return true
	}
	at, ok := m.endedUsers[claims.UserID]
	if !ok {
		return false
	}
	return claims.IssuedAt == nil || !claims.IssuedAt.Time.After(at)
}

func (m *Manager) open(ctx context.Context, id string, user model.User) (*Session, error) {
	feed, err := m.registry.Open(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("open notifications: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[id]; ok {
		m.registry.Release(user.Email)
		return existing, nil
	}
	s := newSession(id, user, feed)
	s.lastSeen = m.now()
	m.sessions[id] = s
	return s, nil
}

// End drops the session and refuses to resume it for as long as an access
// token issued for it could still be valid. It reports whether the session
// existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	now := m.now()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.forgetLocked(now)
	m.ended[id] = now
	m.mu.Unlock()

	if ok {
		m.registry.Release(s.User.Email)
	}
	return ok
}

// EndUser ends every session of userID and refuses any access token issued
// to that user up to now. It returns how many live sessions were dropped.
func (m *Manager) EndUser(userID int64) int {
	m.mu.Lock()
	now := m.now()
	var dropped []*Session
	for id, s := range m.sessions {
		if s.User.ID != userID {
			continue
		}
		delete(m.sessions, id)
		m.ended[id] = now
		dropped = append(dropped, s)
	}
	m.forgetLocked(now)
	m.endedUsers[userID] = now
	m.mu.Unlock()

	for _, s := range dropped {
		m.registry.Release(s.User.Email)
	}
	return len(dropped)
}

// Prune drops sessions that have not been seen for longer than maxIdle and
// releases their feeds. A pruned session whose token is still valid is
// rebuilt by Resume on its next request.
func (m *Manager) Prune(maxIdle time.Duration) int {
	m.mu.Lock()
	now := m.now()
	var dropped []*Session
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) <= maxIdle {
			continue
		}
		delete(m.sessions, id)
		dropped = append(dropped, s)
	}
	m.forgetLocked(now)
	m.mu.Unlock()

	for _, s := range dropped {
		m.registry.Release(s.User.Email)
	}
	return len(dropped)
}

// forgetLocked drops refusals that no unexpired access token can hit.
func (m *Manager) forgetLocked(now time.Time) {
	for sid, at := range m.ended {
		if now.Sub(at) > auth.AccessTokenExpiry {
			delete(m.ended, sid)
		}
	}
	for uid, at := range m.endedUsers {
		if now.Sub(at) > auth.AccessTokenExpiry {
			delete(m.endedUsers, uid)
		}
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
