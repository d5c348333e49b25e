// Package notification keeps the per-user event feed shown as a badge and a
// list: at most MaxItems entries, newest first, persisted as one document
// per user.
package notification

import (
	"fmt"
	"time"

	"github.com/civicreport/api/internal/model"
)

type Type string

const (
	TypeNewReport    Type = "NEW_REPORT"
	TypeStatusUpdate Type = "STATUS_UPDATE"
	TypeReassignment Type = "REASSIGNMENT"
	TypeWelcome      Type = "WELCOME"
)

const (
	MaxItems    = 50
	Placeholder = "You have no new notifications."
)

type Icon struct {
	Background string `json:"bg"`
	Glyph      string `json:"glyph"`
}

type Notification struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Icon      Icon      `json:"icon"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	ReportID  *int64    `json:"reportId"`
}

// Payload carries the fields the message templates draw from. Only the
// fields relevant to a type need to be set.
type Payload struct {
	ReportID   *int64
	Title      string
	Category   string
	Status     string
	Department string
	Name       string
}

func ReportPayload(r *model.Report) Payload {
	id := r.ID
	return Payload{
		ReportID:   &id,
		Title:      r.Title,
		Category:   r.Category,
		Status:     r.Status,
		Department: r.AssignedDepartment,
	}
}

func WelcomePayload(name string) Payload {
	return Payload{Name: name}
}

var icons = map[Type]Icon{
	TypeNewReport:    {Background: "#2563EB", Glyph: "file-plus"},
	TypeStatusUpdate: {Background: "#16A34A", Glyph: "check"},
	TypeReassignment: {Background: "#F97316", Glyph: "log-in"},
	TypeWelcome:      {Background: "#7C3AED", Glyph: "heart"},
}

// IconFor returns the icon for t. Unknown types share the NEW_REPORT icon.
func IconFor(t Type) Icon {
	if icon, ok := icons[t]; ok {
		return icon
	}
	return icons[TypeNewReport]
}

func Message(t Type, p Payload) string {
	switch t {
	case TypeNewReport:
		return fmt.Sprintf("New report submitted: \"%s\" in the %s category.", p.Title, p.Category)
	case TypeStatusUpdate:
		return fmt.Sprintf("The status of your report \"%s\" has been updated to %s.", p.Title, p.Status)
	case TypeReassignment:
		return fmt.Sprintf("Report \"%s\" has been assigned to the %s department.", p.Title, p.Department)
	case TypeWelcome:
		return fmt.Sprintf("Welcome to CivicReport, %s! Start by reporting an issue.", p.Name)
	default:
		return "You have a new notification."
	}
}
