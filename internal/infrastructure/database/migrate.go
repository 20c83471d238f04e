package database

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invision-server/internal/infrastructure/database/entities"
)

// Migrate applies the schema for all registered entities.
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	err := db.AutoMigrate(
		&entities.Organization{},
		&entities.OrganizationMember{},
		&entities.Workflow{},
		&entities.ChatSession{},
	)
	if err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
