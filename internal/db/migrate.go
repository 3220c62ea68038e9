package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.Board{},
		&models.BoardMember{},
		&models.Column{},
		&models.Card{},
		&models.Label{},
		&models.CardLabel{},
		&models.AuditLog{},
		&models.Notification{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts a site-admin profile with the given credentials.
// Existing profiles with the same email keep their id but get the new
// password hash and the admin role.
func SeedAdmin(db *gorm.DB, email, fullName, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("db: hash admin password: %w", err)
	}

	profile := models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Role:         "admin",
		CreatedAt:    time.Now(),
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "password_hash", "role"}),
	}).Create(&profile)
	if result.Error != nil {
		return fmt.Errorf("db: seed admin %q: %w", email, result.Error)
	}
	return nil
}
