package model

type Department struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string  `gorm:"not null;size:100;uniqueIndex" json:"name"`
	ContactEmail *string `gorm:"size:255" json:"contact_email"`
	ContactPhone *string `gorm:"size:50" json:"contact_phone"`
}

func (Department) TableName() string {
	return "departments"
}
