package database

import (
	"fmt"

	"villagefund/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Member{},
		&models.Transaction{},
		&models.FundState{},
		&models.WelfareRecord{},
		&models.CalendarEvent{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed makes sure the singleton fund row and an initial admin login exist.
// It is idempotent: reruns leave existing rows alone.
func Seed(db *gorm.DB, seedBalance int64, adminPassword string) error {
	var fundCount int64
	if err := db.Model(&models.FundState{}).Count(&fundCount).Error; err != nil {
		return fmt.Errorf("count fund rows: %w", err)
	}
	if fundCount == 0 {
		fund := models.FundState{
			ID:           1,
			SeedBalance:  seedBalance,
			TotalBalance: seedBalance,
		}
		if err := db.Create(&fund).Error; err != nil {
			return fmt.Errorf("seed fund state: %w", err)
		}
	}

	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if adminCount == 0 {
		if adminPassword == "" {
			return fmt.Errorf("no admin user exists and no initial admin password configured (VWF_ADMIN_PASSWORD)")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := models.User{
			Username:     "admin",
			PasswordHash: string(hash),
			DisplayName:  "Fund Committee",
			Role:         models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
	}

	return nil
}
