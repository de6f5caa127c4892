package database

import (
	"fmt"

	"directory_backend/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	// gen_random_uuid() в BaseModel
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.UserStatus{},
		&models.UserRole{},
		&models.RefreshToken{},
		&models.Country{},
		&models.SignupProgress{},
		&models.PaymentVerification{},
		&models.Profile{},
		&models.SiteStatus{},
		&models.ModerationAction{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
