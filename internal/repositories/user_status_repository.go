package repositories

import (
	"time"

	"directory_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStatusRepository - флаги approved/banned. Все записи после создания идут через upsert
// по user_id, который трогает только указанную колонку.
type UserStatusRepository interface {
	Create(db *gorm.DB, status *models.UserStatus) error
	FindByUserID(db *gorm.DB, userID string) (*models.UserStatus, error)
	UpsertApproved(db *gorm.DB, userID string, approved bool) error
	UpsertBanned(db *gorm.DB, userID string, banned bool) error
	CountApproved(db *gorm.DB) (int64, error)
}

type userStatusRepository struct{}

func NewUserStatusRepository() UserStatusRepository {
	return &userStatusRepository{}
}

func (r *userStatusRepository) Create(db *gorm.DB, status *models.UserStatus) error {
	return db.Create(status).Error
}

func (r *userStatusRepository) FindByUserID(db *gorm.DB, userID string) (*models.UserStatus, error) {
	var status models.UserStatus
	if err := db.Where("user_id = ?", userID).First(&status).Error; err != nil {
		return nil, notFound(err, ErrUserStatusNotFound)
	}
	return &status, nil
}

func (r *userStatusRepository) UpsertApproved(db *gorm.DB, userID string, approved bool) error {
	row := &models.UserStatus{UserID: userID, Approved: approved}
	return r.upsert(db, row, "approved", approved)
}

func (r *userStatusRepository) UpsertBanned(db *gorm.DB, userID string, banned bool) error {
	row := &models.UserStatus{UserID: userID, Banned: banned}
	return r.upsert(db, row, "banned", banned)
}

// upsert вставляет строку (соседний флаг по умолчанию false) или обновляет только column
func (r *userStatusRepository) upsert(db *gorm.DB, row *models.UserStatus, column string, value bool) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			column:       value,
			"updated_at": time.Now(),
		}),
	}).Create(row).Error
}

func (r *userStatusRepository) CountApproved(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.UserStatus{}).Where("approved = ? AND banned = ?", true, false).Count(&count).Error
	return count, err
}
