package main

import (
	"flag"
	"log"
	"strings"

	"github.com/civicreport/api/internal/auth"
	"github.com/civicreport/api/internal/config"
	"github.com/civicreport/api/internal/database"
	"github.com/civicreport/api/internal/model"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	adminEmail := flag.String("admin-email", "", "Create an admin account with this email")
	adminName := flag.String("admin-name", "Administrator", "Name of the admin account")
	adminPassword := flag.String("admin-password", "", "Password of the admin account")
	staffEmail := flag.String("staff-email", "", "Create a staff account with this email")
	staffName := flag.String("staff-name", "Staff", "Name of the staff account")
	staffPassword := flag.String("staff-password", "", "Password of the staff account")
	staffDepartment := flag.String("staff-department", "", "Department of the staff account")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migration
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	res, err := database.SeedDefaults(db)
	if err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}
	log.Printf("Seeded departments=%d, categories=%d, subcategories=%d",
		res.Departments, res.Categories, res.Subcategories)

	if *adminEmail != "" {
		hash := mustHash(*adminPassword, "admin")
		created, err := database.EnsureAdmin(db, *adminName, *adminEmail, hash)
		if err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		logCreated("admin", *adminEmail, created)
	}

	if *staffEmail != "" {
		hash := mustHash(*staffPassword, "staff")
		created, err := ensureStaff(db, *staffName, *staffEmail, hash, *staffDepartment)
		if err != nil {
			log.Fatalf("Failed to create staff: %v", err)
		}
		logCreated("staff", *staffEmail, created)
	}

	log.Println("Seeding complete")
}

func mustHash(password, role string) string {
	if len(password) < 6 {
		log.Fatalf("The %s password must be at least 6 characters", role)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash %s password: %v", role, err)
	}
	return hash
}

func ensureStaff(db *gorm.DB, name, email, passwordHash, department string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	staff := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleStaff,
	}
	if department != "" {
		staff.Department = &department
	}

	result := db.Where(model.User{Email: email}).FirstOrCreate(&staff)
	return result.RowsAffected > 0, result.Error
}

func logCreated(role, email string, created bool) {
	if created {
		log.Printf("Created %s account %s", role, email)
	} else {
		log.Printf("Account %s already exists, skipped", email)
	}
}
