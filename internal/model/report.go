package model

import "time"

type Report struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title              string    `gorm:"not null;size:255" json:"title"`
	Description        string    `gorm:"type:text;not null" json:"description"`
	Category           string    `gorm:"not null;size:100;index" json:"category"`
	Subcategory        *string   `gorm:"size:100" json:"subcategory"`
	Priority           string    `gorm:"not null;size:20;default:'Medium'" json:"priority"`
	Status             string    `gorm:"not null;size:20;default:'Pending';index" json:"status"`
	CitizenContact     string    `gorm:"not null;size:255;index" json:"citizen_contact"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	Address            string    `gorm:"type:text" json:"address"`
	PhotoPath          *string   `gorm:"type:text" json:"photo_path"`
	AssignedDepartment string    `gorm:"size:100;index" json:"assigned_department"`
	DepartmentLocked   bool      `gorm:"default:false" json:"department_locked"`
	InternalNotes      string    `gorm:"type:text" json:"internal_notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// HasLocation reports whether the report carries map coordinates.
func (r *Report) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Status constants
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
)

// Priority constants
const (
	PriorityLow       = "Low"
	PriorityMedium    = "Medium"
	PriorityHigh      = "High"
	PriorityEmergency = "Emergency"
)

var (
	Statuses   = []string{StatusPending, StatusInProgress, StatusResolved}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency}
)

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func IsValidPriority(p string) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// IsUrgent is true for unresolved High and Emergency reports.
func (r *Report) IsUrgent() bool {
	return (r.Priority == PriorityHigh || r.Priority == PriorityEmergency) && r.Status != StatusResolved
}
