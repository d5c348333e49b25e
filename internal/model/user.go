package model

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Provider     string    `gorm:"not null;size:20;default:'local'" json:"provider"`
	ProviderID   string    `gorm:"size:255" json:"-"`
	Role         string    `gorm:"not null;size:20;default:'citizen';index" json:"role"`
	Department   *string   `gorm:"size:100" json:"department"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleCitizen = "citizen"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Provider constants
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

func IsValidRole(r string) bool {
	return r == RoleCitizen || r == RoleStaff || r == RoleAdmin
}
