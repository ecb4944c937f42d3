// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"
	"log"

	"hackmate/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the service uses.
func RunMigrations(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Hackathon{},
		&models.UserProfile{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("core migrations failed: %w", err)
	}

	if err := createCoreIndexes(db); err != nil {
		return fmt.Errorf("core indexes failed: %w", err)
	}

	if err := RunTeamMigrations(db); err != nil {
		return fmt.Errorf("team migrations failed: %w", err)
	}

	log.Println("✅ All migrations completed successfully")
	return nil
}

// createCoreIndexes adds the inbox index through the migrator so the
// statement stays portable across postgres, mysql and sqlite.
func createCoreIndexes(db *gorm.DB) error {
	const name = "idx_notifications_inbox"
	m := db.Migrator()
	if m.HasIndex(&models.Notification{}, name) {
		return nil
	}
	return db.Exec("CREATE INDEX " + name + " ON notifications (user_id, created_at)").Error
}
