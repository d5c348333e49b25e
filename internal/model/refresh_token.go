package model

import "time"

// RefreshToken lets a client obtain a new access token for the same
// server-side session once the short-lived one expires.
type RefreshToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	SessionID string    `gorm:"not null;size:36;index" json:"session_id"`
	Token     string    `gorm:"not null;uniqueIndex;size:255" json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
