// database/team_migrations.go - Team tables and their lookup indexes
package database

import (
	"log"

	"hackmate/models"

	"gorm.io/gorm"
)

// RunTeamMigrations creates the teams table and the per-user pointer tables
// that back the single-team and single-request rules.
func RunTeamMigrations(db *gorm.DB) error {
	log.Println("Running team migrations...")

	if err := db.AutoMigrate(
		&models.Team{},
		&models.UserTeam{},
		&models.PendingJoinRequest{},
	); err != nil {
		return err
	}

	log.Println("✅ Team migrations completed successfully")
	return nil
}
