package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/justsurfingit/InternConnect/internal/database"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

// SetupTestDB returns a migrated in-memory database private to the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// a second connection would open a different, empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role. The password hash is a placeholder.
func CreateUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "unused", Role: role, FullName: email}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if role == models.RoleStudent {
		profile := models.StudentProfile{UserID: user.ID, FullName: email}
		if err := db.Create(&profile).Error; err != nil {
			t.Fatalf("Failed to create student profile: %v", err)
		}
	}
	return user
}

// CreateEmployer inserts an employer user and company with the given verification status.
func CreateEmployer(t *testing.T, db *gorm.DB, email, company string, status models.VerificationStatus) (models.User, models.Employer) {
	t.Helper()
	user := CreateUser(t, db, email, models.RoleEmployer)
	employer := models.Employer{UserID: user.ID, CompanyName: company, VerificationStatus: status}
	if err := db.Create(&employer).Error; err != nil {
		t.Fatalf("Failed to create employer: %v", err)
	}
	return user, employer
}

// CreateJob inserts an open posting for the employer.
func CreateJob(t *testing.T, db *gorm.DB, employerID, title string, skills ...string) models.JobPosting {
	t.Helper()
	job := models.JobPosting{
		EmployerID:  employerID,
		Title:       title,
		Description: title + " description",
		JobType:     models.JobTypeInternship,
		Status:      models.JobOpen,
		Skills:      skills,
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	return job
}
