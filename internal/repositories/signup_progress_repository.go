package repositories

import (
	"time"

	"directory_backend/internal/models"

	"gorm.io/gorm"
)

// SignupProgressRepository хранит текущий шаг мастера. Переходы условные:
// строка обновляется, только если шаг в БД совпадает с ожидаемым.
type SignupProgressRepository interface {
	Create(db *gorm.DB, progress *models.SignupProgress) error
	FindByUserID(db *gorm.DB, userID string) (*models.SignupProgress, error)
	Advance(db *gorm.DB, userID, from, to string) error
	AdvanceWithCountry(db *gorm.DB, userID, from, to, countryID string) error
}

type signupProgressRepository struct{}

func NewSignupProgressRepository() SignupProgressRepository {
	return &signupProgressRepository{}
}

func (r *signupProgressRepository) Create(db *gorm.DB, progress *models.SignupProgress) error {
	return db.Create(progress).Error
}

func (r *signupProgressRepository) FindByUserID(db *gorm.DB, userID string) (*models.SignupProgress, error) {
	var progress models.SignupProgress
	if err := db.Preload("Country").Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, notFound(err, ErrProgressNotFound)
	}
	return &progress, nil
}

func (r *signupProgressRepository) Advance(db *gorm.DB, userID, from, to string) error {
	return r.update(db, userID, from, map[string]interface{}{
		"step":       to,
		"updated_at": time.Now(),
	})
}

func (r *signupProgressRepository) AdvanceWithCountry(db *gorm.DB, userID, from, to, countryID string) error {
	return r.update(db, userID, from, map[string]interface{}{
		"step":       to,
		"country_id": countryID,
		"updated_at": time.Now(),
	})
}

func (r *signupProgressRepository) update(db *gorm.DB, userID, from string, values map[string]interface{}) error {
	result := db.Model(&models.SignupProgress{}).
		Where("user_id = ? AND step = ?", userID, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStepConflict
	}
	return nil
}
