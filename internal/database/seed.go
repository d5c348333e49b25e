package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/civicreport/api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultCategory struct {
	Name          string
	Department    string
	Subcategories []string
}

var DefaultDepartments = []model.Department{
	{Name: "Public Works", ContactEmail: strPtr("publicworks@city.gov"), ContactPhone: strPtr("555-0101")},
	{Name: "Utilities", ContactEmail: strPtr("utilities@city.gov"), ContactPhone: strPtr("555-0102")},
	{Name: "Sanitation", ContactEmail: strPtr("sanitation@city.gov"), ContactPhone: strPtr("555-0103")},
	{Name: "Transportation", ContactEmail: strPtr("transportation@city.gov"), ContactPhone: strPtr("555-0104")},
	{Name: "Parks & Recreation", ContactEmail: strPtr("parks@city.gov"), ContactPhone: strPtr("555-0105")},
	{Name: "General Services", ContactEmail: strPtr("services@city.gov"), ContactPhone: strPtr("555-0106")},
}

var DefaultCategories = []DefaultCategory{
	{Name: "Potholes", Department: "Public Works", Subcategories: []string{"Road surface", "Sidewalk", "Bridge"}},
	{Name: "Street Lights", Department: "Utilities", Subcategories: []string{"Light out", "Flickering", "Damaged pole"}},
	{Name: "Trash Collection", Department: "Sanitation", Subcategories: []string{"Missed pickup", "Overflowing bin", "Illegal dumping"}},
	{Name: "Water Issues", Department: "Utilities", Subcategories: []string{"Leak", "No supply", "Contamination"}},
	{Name: "Traffic Signs", Department: "Transportation", Subcategories: []string{"Missing sign", "Damaged sign", "Signal fault"}},
	{Name: "Graffiti", Department: "Public Works", Subcategories: []string{"Public building", "Private property"}},
	{Name: "Parks & Recreation", Department: "Parks & Recreation", Subcategories: []string{"Playground", "Landscaping", "Facilities"}},
	{Name: "Other", Department: "General Services"},
}

type SeedResult struct {
	Departments   int
	Categories    int
	Subcategories int
}

// SeedDefaults inserts the default departments, categories and
// subcategories. Rows that already exist are left alone.
func SeedDefaults(db *gorm.DB) (SeedResult, error) {
	var res SeedResult

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, d := range DefaultDepartments {
			dept := d
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&dept)
			if result.Error != nil {
				return fmt.Errorf("seed department %s: %w", d.Name, result.Error)
			}
			res.Departments += int(result.RowsAffected)
		}

		for _, c := range DefaultCategories {
			cat := model.Category{Name: c.Name, DepartmentMapping: c.Department}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cat)
			if result.Error != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, result.Error)
			}
			res.Categories += int(result.RowsAffected)

			for _, name := range c.Subcategories {
				var existing int64
				if err := tx.Model(&model.Subcategory{}).
					Where("category_name = ? AND subcategory_name = ?", c.Name, name).
					Count(&existing).Error; err != nil {
					return err
				}
				if existing > 0 {
					continue
				}
				sub := model.Subcategory{CategoryName: c.Name, SubcategoryName: name}
				if err := tx.Create(&sub).Error; err != nil {
					return fmt.Errorf("seed subcategory %s/%s: %w", c.Name, name, err)
				}
				res.Subcategories++
			}
		}
		return nil
	})

	return res, err
}

// EnsureAdmin creates an admin account with the given bcrypt hash unless a
// user with that email already exists. It reports whether a row was created.
func EnsureAdmin(db *gorm.DB, name, email, passwordHash string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || passwordHash == "" {
		return false, nil
	}

	var existing model.User
	err := db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	admin := model.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

func strPtr(s string) *string {
	return &s
}
