package database

import (
	"errors"
	"fmt"
	"strings"

	"directory_backend/internal/auth"
	"directory_backend/internal/logger"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"

	"gorm.io/gorm"
)

// AdminSeed - учетная запись первого администратора из конфигурации
type AdminSeed struct {
	Email    string
	Password string
}

// Seeder создает строки, без которых приложение не работает
type Seeder struct {
	users      repositories.UserRepository
	statuses   repositories.UserStatusRepository
	roles      repositories.RoleRepository
	siteStatus repositories.SiteStatusRepository
}

func NewSeeder(
	users repositories.UserRepository,
	statuses repositories.UserStatusRepository,
	roles repositories.RoleRepository,
	siteStatus repositories.SiteStatusRepository,
) *Seeder {
	return &Seeder{users: users, statuses: statuses, roles: roles, siteStatus: siteStatus}
}

// Run: строка site_statuses "global" и первый админ
func (s *Seeder) Run(db *gorm.DB, admin AdminSeed) error {
	if err := s.siteStatus.EnsureDefault(db); err != nil {
		return fmt.Errorf("failed to seed site status: %w", err)
	}
	return s.seedFirstAdmin(db, admin)
}

// seedFirstAdmin создает админа, если его нет, и в любом случае выдает роль admin.
// Повторный запуск ничего не меняет.
func (s *Seeder) seedFirstAdmin(db *gorm.DB, admin AdminSeed) error {
	identifier := strings.ToLower(strings.TrimSpace(admin.Email))
	if identifier == "" || admin.Password == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user, err := s.users.FindByEmail(tx, identifier)
		switch {
		case err == nil:
			logger.Info("Admin user already exists", "email", identifier)
		case errors.Is(err, repositories.ErrUserNotFound):
			hash, err := auth.HashPassword(admin.Password)
			if err != nil {
				return fmt.Errorf("failed to hash admin password: %w", err)
			}
			user = &models.User{
				Username:     auth.LocalPart(identifier),
				Email:        identifier,
				PasswordHash: hash,
			}
			if err := s.users.Create(tx, user); err != nil {
				return fmt.Errorf("failed to create admin user: %w", err)
			}
			logger.Warn("Created first admin user", "email", identifier)
		default:
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		if err := s.statuses.UpsertApproved(tx, user.ID, true); err != nil {
			return fmt.Errorf("failed to approve admin user: %w", err)
		}
		if err := s.roles.Grant(tx, user.ID, models.CapabilityAdmin); err != nil {
			return fmt.Errorf("failed to grant admin capability: %w", err)
		}
		return nil
	})
}
