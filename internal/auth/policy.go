package auth

import (
	"errors"

	"github.com/civicreport/api/internal/model"
)

// ErrForbidden is returned when a role may not perform an action.
var ErrForbidden = errors.New("forbidden")

type Action string

const (
	ActionSubmitReport     Action = "submit_report"
	ActionTrackReports     Action = "track_reports"
	ActionViewReports      Action = "view_reports"
	ActionUpdateReport     Action = "update_report"
	ActionDeleteReport     Action = "delete_report"
	ActionViewDashboard    Action = "view_dashboard"
	ActionViewAnalytics    Action = "view_analytics"
	ActionViewSettings     Action = "view_settings"
	ActionManageUsers      Action = "manage_users"
	ActionManageCategories Action = "manage_categories"
	ActionExport           Action = "export"
	ActionBackup           Action = "backup"
)

var policy = map[Action][]string{
	ActionSubmitReport:     {model.RoleCitizen, model.RoleStaff, model.RoleAdmin},
	ActionTrackReports:     {model.RoleCitizen, model.RoleStaff, model.RoleAdmin},
	ActionViewReports:      {model.RoleStaff, model.RoleAdmin},
	ActionUpdateReport:     {model.RoleStaff, model.RoleAdmin},
	ActionDeleteReport:     {model.RoleAdmin},
	ActionViewDashboard:    {model.RoleStaff, model.RoleAdmin},
	ActionViewAnalytics:    {model.RoleStaff, model.RoleAdmin},
	ActionViewSettings:     {model.RoleStaff, model.RoleAdmin},
	ActionManageUsers:      {model.RoleAdmin},
	ActionManageCategories: {model.RoleAdmin},
	ActionExport:           {model.RoleStaff, model.RoleAdmin},
	ActionBackup:           {model.RoleAdmin},
}

// Allowed reports whether role may perform action. Unknown actions are denied.
func Allowed(role string, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}

func Authorize(role string, action Action) error {
	if !Allowed(role, action) {
		return ErrForbidden
	}
	return nil
}
