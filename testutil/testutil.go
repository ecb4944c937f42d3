// Package testutil provides database and auth fixtures for tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"hackmate/database"
	"hackmate/middleware"
	"hackmate/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestJWTSecret signs tokens in handler tests.
var TestJWTSecret = strings.Repeat("t", 32)

// SetupTestDB opens a private in-memory sqlite database with every table
// migrated. The pool holds a single connection so transactions are
// serialized the way a locked row would serialize them.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := database.Open("sqlite", dsn, logger.Silent)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateTestHackathon stores a hackathon running for two days from start.
func CreateTestHackathon(t *testing.T, db *gorm.DB, id, name string, start time.Time) *models.Hackathon {
	t.Helper()

	h := &models.Hackathon{
		ID:        id,
		Name:      name,
		StartDate: start.UTC(),
		EndDate:   start.UTC().Add(48 * time.Hour),
		Tracks:    []string{},
	}
	if err := db.WithContext(context.Background()).Create(h).Error; err != nil {
		t.Fatalf("Failed to create hackathon: %v", err)
	}
	return h
}

// CreateTestProfile stores a profile for userID.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID, name string, skills ...string) *models.UserProfile {
	t.Helper()

	if skills == nil {
		skills = []string{}
	}
	p := &models.UserProfile{
		ID:          userID,
		DisplayName: name,
		Skills:      skills,
		Projects:    []models.PortfolioProject{},
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	return p
}

// Token returns a bearer token for userID signed with TestJWTSecret.
func Token(t *testing.T, userID, name string) string {
	t.Helper()

	token, err := middleware.IssueToken(TestJWTSecret, middleware.Identity{UserID: userID, Name: name}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// AuthHeader is Token formatted for the Authorization header.
func AuthHeader(t *testing.T, userID string) string {
	t.Helper()
	return "Bearer " + Token(t, userID, "")
}
