package model

type Category struct {
	ID                int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string  `gorm:"not null;size:100;uniqueIndex" json:"name"`
	DepartmentMapping string  `gorm:"not null;size:100" json:"department_mapping"`
	Description       *string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}

type Subcategory struct {
	ID              int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryName    string  `gorm:"not null;size:100;index" json:"category_name"`
	SubcategoryName string  `gorm:"not null;size:100" json:"subcategory_name"`
	Description     *string `gorm:"type:text" json:"description"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}
