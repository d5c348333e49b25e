package model

import (
	"time"

	"gorm.io/datatypes"
)

// Backup records a database backup download. Counts holds the number of
// records per collection at the time of the backup.
type Backup struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename  string         `gorm:"not null;size:255" json:"filename"`
	Counts    datatypes.JSON `json:"counts"`
	CreatedBy *int64         `json:"created_by"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (Backup) TableName() string {
	return "backups"
}
