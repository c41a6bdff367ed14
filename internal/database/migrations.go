package database

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/inviteforge/inviteforge/internal/models"
)

// AutoMigrate applies the schema for all persistent models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.GeneratedInvite{},
		&models.CacheEntry{},
	)
}

// SeedConfig describes the optional administrator account created on first boot.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	BCryptCost    int
}

// SeedData ensures the configured administrator account exists. Seeding is a
// no-op when no admin email is configured or the account already exists.
func SeedData(db *gorm.DB, cfg SeedConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		return errors.New("seed: admin password must be set when admin email is configured")
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	cost := cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cost)
	if err != nil {
		return err
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}

	admin := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	return db.Create(&admin).Error
}
