package repositories

import (
	"directory_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository - таблица возможностей пользователей
type RoleRepository interface {
	HasCapability(db *gorm.DB, userID string, capability models.Capability) (bool, error)
	Grant(db *gorm.DB, userID string, capability models.Capability) error
	Revoke(db *gorm.DB, userID string, capability models.Capability) error
	ListByUserID(db *gorm.DB, userID string) ([]models.Capability, error)
}

type roleRepository struct{}

func NewRoleRepository() RoleRepository {
	return &roleRepository{}
}

func (r *roleRepository) HasCapability(db *gorm.DB, userID string, capability models.Capability) (bool, error) {
	var count int64
	err := db.Model(&models.UserRole{}).
		Where("user_id = ? AND capability = ?", userID, capability).
		Count(&count).Error
	return count > 0, err
}

func (r *roleRepository) Grant(db *gorm.DB, userID string, capability models.Capability) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: userID, Capability: capability}).Error
}

func (r *roleRepository) Revoke(db *gorm.DB, userID string, capability models.Capability) error {
	return db.Where("user_id = ? AND capability = ?", userID, capability).Delete(&models.UserRole{}).Error
}

func (r *roleRepository) ListByUserID(db *gorm.DB, userID string) ([]models.Capability, error) {
	var caps []models.Capability
	err := db.Model(&models.UserRole{}).Where("user_id = ?", userID).Pluck("capability", &caps).Error
	return caps, err
}
