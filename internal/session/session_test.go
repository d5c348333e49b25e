package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/model"
	"github.com/civicreport/api/internal/notification"
	"github.com/civicreport/api/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, role string) *Session {
	t.Helper()
	m := NewManager(notification.NewRegistry(notification.NewMemoryStore()))
	s, err := m.Create(context.Background(), model.User{ID: 1, Name: "Jane", Email: "jane@example.com", Role: role})
	require.NoError(t, err)
	return s
}

func TestHomePageByRole(t *testing.T) {
	assert.Equal(t, PageLanding, newTestSession(t, model.RoleCitizen).Page())
	assert.Equal(t, PageAdminDashboard, newTestSession(t, model.RoleStaff).Page())
	assert.Equal(t, PageAdminDashboard, newTestSession(t, model.RoleAdmin).Page())
}

func TestNavigate(t *testing.T) {
	s := newTestSession(t, model.RoleCitizen)

	tr, err := s.Navigate(PageMap)
	require.NoError(t, err)
	assert.Equal(t, Transition{From: "landing", To: "map", Load: LoadMapReports}, tr)
	assert.Equal(t, PageMap, s.Page())

	tr, err = s.Navigate(PageReportForm)
	require.NoError(t, err)
	assert.Equal(t, LoadCategories, tr.Load)

	tr, err = s.Navigate(PageTrack)
	require.NoError(t, err)
	assert.Equal(t, LoadNone, tr.Load)

	_, err = s.Navigate(PageAdminDashboard)
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, PageTrack, s.Page())

	_, err = s.Navigate(Page("nowhere"))
	assert.True(t, validator.IsValidationError(err))
}

func TestSelectTab(t *testing.T) {
	staff := newTestSession(t, model.RoleStaff)

	tr, err := staff.SelectTab(TabReports)
	require.NoError(t, err)
	assert.Equal(t, Transition{From: "dashboard", To: "reports", Load: LoadReportsManagement}, tr)

	_, err = staff.SelectTab(TabUsers)
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, TabReports, staff.Tab())

	_, err = staff.SelectTab(Tab("billing"))
	assert.True(t, validator.IsValidationError(err))

	_, err = staff.Navigate(PageMap)
	require.NoError(t, err)
	_, err = staff.SelectTab(TabAnalytics)
	assert.True(t, validator.IsValidationError(err))

	_, err = staff.Navigate(PageAdminDashboard)
	require.NoError(t, err)
	assert.Equal(t, TabDashboard, staff.Tab())

	admin := newTestSession(t, model.RoleAdmin)
	tr, err = admin.SelectTab(TabUsers)
	require.NoError(t, err)
	assert.Equal(t, LoadUsers, tr.Load)
}

func TestMenus(t *testing.T) {
	labels := func(role string) []string {
		var out []string
		for _, item := range Menu(role) {
			out = append(out, item.Label)
		}
		return out
	}

	assert.Equal(t, []string{"Home", "Map", "Track Reports", "Logout"}, labels(model.RoleCitizen))
	assert.Equal(t, []string{"Home", "Map", "Track Reports", "Staff Dashboard", "Logout"}, labels(model.RoleStaff))
	assert.Equal(t, []string{"Home", "Map", "Track Reports", "Admin", "Logout"}, labels(model.RoleAdmin))

	assert.Empty(t, Tabs(model.RoleCitizen))
	assert.Equal(t, []Tab{TabDashboard, TabReports, TabAnalytics, TabSettings}, Tabs(model.RoleStaff))
	assert.Equal(t, []Tab{TabDashboard, TabReports, TabAnalytics, TabUsers, TabSettings}, Tabs(model.RoleAdmin))
}

func TestState(t *testing.T) {
	citizen := newTestSession(t, model.RoleCitizen).State()
	assert.Equal(t, PageLanding, citizen.Page)
	assert.Empty(t, citizen.Tab)
	assert.Empty(t, citizen.Tabs)

	admin := newTestSession(t, model.RoleAdmin).State()
	assert.Equal(t, TabDashboard, admin.Tab)
	assert.Len(t, admin.Tabs, 5)
}

func TestBeginSubmitIsSingleFlight(t *testing.T) {
	s := newTestSession(t, model.RoleCitizen)

	release, err := s.BeginSubmit()
	require.NoError(t, err)

	_, err = s.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	release()
	release()

	again, err := s.BeginSubmit()
	require.NoError(t, err)
	again()
}

func TestBeginSubmitReleasedOnFailurePath(t *testing.T) {
	s := newTestSession(t, model.RoleCitizen)

	submit := func(fail bool) error {
		release, err := s.BeginSubmit()
		if err != nil {
			return err
		}
		defer release()
		if fail {
			return assert.AnError
		}
		return nil
	}

	assert.ErrorIs(t, submit(true), assert.AnError)
	assert.NoError(t, submit(false))
}

func TestBeginSubmitConcurrent(t *testing.T) {
	s := newTestSession(t, model.RoleCitizen)
	hold := make(chan struct{})

	var acquired, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := s.BeginSubmit()
			if err != nil {
				atomic.AddInt32(&rejected, 1)
				return
			}
			atomic.AddInt32(&acquired, 1)
			<-hold
			release()
		}()
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&acquired)+atomic.LoadInt32(&rejected) == 20
	}, time.Second, time.Millisecond)
	close(hold)
	wg.Wait()

	assert.Equal(t, int32(1), acquired)
	assert.Equal(t, int32(19), rejected)
}
