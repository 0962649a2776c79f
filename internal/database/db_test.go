package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/justsurfingit/InternConnect/internal/models"
	"gorm.io/gorm"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db := openMemory(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for _, table := range []string{"users", "student_profile", "registered_employers", "job_postings", "applications", "interview_schedules", "job_matches", "posts"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s was not created", table)
		}
	}
}

func TestBase_GeneratesID(t *testing.T) {
	db := openMemory(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	user := models.User{Email: "a@example.com", PasswordHash: "x", Role: models.RoleStudent}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if len(user.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", user.ID)
	}

	profile := models.StudentProfile{UserID: user.ID, Skills: []string{"go", "sql"}}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	var loaded models.StudentProfile
	if err := db.First(&loaded, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if len(loaded.Skills) != 2 || loaded.Skills[1] != "sql" {
		t.Fatalf("skills round trip = %v", loaded.Skills)
	}
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every new connection would see its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	return db
}
