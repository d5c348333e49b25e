package session

import (
	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/model"
)

type Page string

const (
	PageLanding        Page = "landing"
	PageMap            Page = "map"
	PageReportForm     Page = "report_form"
	PageTrack          Page = "track"
	PageLoginSelection Page = "login_selection"
	PageCitizenAuth    Page = "citizen_auth"
	PageStaffLogin     Page = "staff_login"
	PageAdminLogin     Page = "admin_login"
	PageAdminDashboard Page = "admin_dashboard"
)

type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabReports   Tab = "reports"
	TabAnalytics Tab = "analytics"
	TabUsers     Tab = "users"
	TabSettings  Tab = "settings"
)

// Load names the data a client has to fetch after a transition.
type Load string

const (
	LoadNone              Load = ""
	LoadLandingStats      Load = "landing_stats"
	LoadMapReports        Load = "map_reports"
	LoadCategories        Load = "categories"
	LoadAdminDashboard    Load = "admin_dashboard"
	LoadReportsManagement Load = "reports_management"
	LoadAnalytics         Load = "analytics"
	LoadUsers             Load = "users"
	LoadSettings          Load = "settings"
)

type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
	Load Load   `json:"load,omitempty"`
}

type pageRule struct {
	load   Load
	action auth.Action // empty means any signed-in role
}

var pages = map[Page]pageRule{
	PageLanding:        {load: LoadLandingStats},
	PageMap:            {load: LoadMapReports},
	PageReportForm:     {load: LoadCategories, action: auth.ActionSubmitReport},
	PageTrack:          {},
	PageLoginSelection: {},
	PageCitizenAuth:    {},
	PageStaffLogin:     {},
	PageAdminLogin:     {},
	PageAdminDashboard: {load: LoadAdminDashboard, action: auth.ActionViewDashboard},
}

var tabs = map[Tab]pageRule{
	TabDashboard: {load: LoadAdminDashboard, action: auth.ActionViewDashboard},
	TabReports:   {load: LoadReportsManagement, action: auth.ActionViewReports},
	TabAnalytics: {load: LoadAnalytics, action: auth.ActionViewAnalytics},
	TabUsers:     {load: LoadUsers, action: auth.ActionManageUsers},
	TabSettings:  {load: LoadSettings, action: auth.ActionViewSettings},
}

func IsValidPage(p Page) bool {
	_, ok := pages[p]
	return ok
}

func IsValidTab(t Tab) bool {
	_, ok := tabs[t]
	return ok
}

// HomePage is where a role lands right after login.
func HomePage(role string) Page {
	if role == model.RoleStaff || role == model.RoleAdmin {
		return PageAdminDashboard
	}
	return PageLanding
}

type MenuItem struct {
	Label string `json:"label"`
	Page  Page   `json:"page"`
}

func Menu(role string) []MenuItem {
	menu := []MenuItem{
		{Label: "Home", Page: PageLanding},
		{Label: "Map", Page: PageMap},
		{Label: "Track Reports", Page: PageTrack},
	}
	switch role {
	case model.RoleStaff:
		menu = append(menu, MenuItem{Label: "Staff Dashboard", Page: PageAdminDashboard})
	case model.RoleAdmin:
		menu = append(menu, MenuItem{Label: "Admin", Page: PageAdminDashboard})
	}
	return append(menu, MenuItem{Label: "Logout", Page: PageLoginSelection})
}

// Tabs lists the admin tabs role may open, in display order.
func Tabs(role string) []Tab {
	var out []Tab
	for _, t := range []Tab{TabDashboard, TabReports, TabAnalytics, TabUsers, TabSettings} {
		if auth.Allowed(role, tabs[t].action) {
			out = append(out, t)
		}
	}
	return out
}
