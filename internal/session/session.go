// Package session holds the server-side state of one login: the user, the
// page and admin tab they are on, their notification feed and the guard that
// keeps report submissions single-flight.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/validator"
	"golang.org/x/sync/semaphore"
)

// ErrSubmissionInProgress is returned by BeginSubmit while another
// submission of the same session has not finished.
var ErrSubmissionInProgress = errors.New("a report submission is already in progress")

type Session struct {
	ID        string
	User      model.User
	Feed      *notification.Feed
	CreatedAt time.Time

	mu       sync.Mutex
	page     Page
	tab      Tab
	lastSeen time.Time
	guard    *semaphore.Weighted
}

func newSession(id string, user model.User, feed *notification.Feed) *Session {
	return &Session{
		ID:        id,
		User:      user,
		Feed:      feed,
		CreatedAt: time.Now(),
		page:      HomePage(user.Role),
		tab:       TabDashboard,
		guard:     semaphore.NewWeighted(1),
	}
}

func (s *Session) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.User.Role
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// refresh applies the name and role carried by a newer token and marks the
// session as seen.
func (s *Session) refresh(name, role string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User.Name = name
	s.User.Role = role
	s.lastSeen = at
}

func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// Navigate moves the session to page. Entering the admin dashboard resets
// the tab to the dashboard overview.
func (s *Session) Navigate(page Page) (Transition, error) {
	rule, ok := pages[page]
	if !ok {
		return Transition{}, validator.New("page", "unknown page "+string(page))
	}
	if rule.action != "" && !auth.Allowed(s.Role(), rule.action) {
		return Transition{}, auth.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{From: string(s.page), To: string(page), Load: rule.load}
	s.page = page
	if page == PageAdminDashboard {
		s.tab = TabDashboard
	}
	return t, nil
}

// SelectTab switches the admin tab. The session must be on the dashboard.
func (s *Session) SelectTab(tab Tab) (Transition, error) {
	rule, ok := tabs[tab]
	if !ok {
		return Transition{}, validator.New("tab", "unknown tab "+string(tab))
	}
	if !auth.Allowed(s.Role(), rule.action) {
		return Transition{}, auth.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != PageAdminDashboard {
		return Transition{}, validator.New("tab", "tabs are only available on the admin dashboard")
	}
	t := Transition{From: string(s.tab), To: string(tab), Load: rule.load}
	s.tab = tab
	return t, nil
}

// BeginSubmit claims the submission guard. The returned release func must
// be called on every exit path; calling it more than once is harmless.
func (s *Session) BeginSubmit() (func(), error) {
	if !s.guard.TryAcquire(1) {
		return nil, ErrSubmissionInProgress
	}
	var once sync.Once
	return func() {
		once.Do(func() { s.guard.Release(1) })
	}, nil
}

// State is the JSON snapshot returned to clients.
type State struct {
	ID   string     `json:"id"`
	User model.User `json:"user"`
	Page Page       `json:"page"`
	Tab  Tab        `json:"tab,omitempty"`
	Tabs []Tab      `json:"tabs,omitempty"`
	Menu []MenuItem `json:"menu"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:   s.ID,
		User: s.User,
		Page: s.page,
		Menu: Menu(s.User.Role),
	}
	if s.page == PageAdminDashboard {
		st.Tab = s.tab
		st.Tabs = Tabs(s.User.Role)
	}
	return st
}
