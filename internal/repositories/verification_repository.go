package repositories

import (
	"time"

	"directory_backend/internal/models"

	"gorm.io/gorm"
)

type VerificationRepository interface {
	Create(db *gorm.DB, v *models.PaymentVerification) error
	FindByID(db *gorm.DB, id string) (*models.PaymentVerification, error)
	FindLatestByUserID(db *gorm.DB, userID string) (*models.PaymentVerification, error)
	// List - от новых к старым
	List(db *gorm.DB, filter VerificationFilter) ([]models.PaymentVerification, int64, error)
	// Review переводит pending -> status; если запись уже не pending, ErrVerificationNotPending
	Review(db *gorm.DB, id string, status models.VerificationStatus, reviewerID string, at time.Time) error
	CountByStatus(db *gorm.DB, status models.VerificationStatus) (int64, error)
	// ProofPathsByUser - все пути пруфов пользователя, которые еще упоминаются в БД
	ProofPathsByUser(db *gorm.DB, userID string) ([]string, error)
}

type VerificationFilter struct {
	Status models.VerificationStatus
	UserID string
	Pagination
}

type verificationRepository struct{}

func NewVerificationRepository() VerificationRepository {
	return &verificationRepository{}
}

func (r *verificationRepository) Create(db *gorm.DB, v *models.PaymentVerification) error {
	return db.Create(v).Error
}

func (r *verificationRepository) FindByID(db *gorm.DB, id string) (*models.PaymentVerification, error) {
	var v models.PaymentVerification
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrVerificationNotFound)
	}
	return &v, nil
}

func (r *verificationRepository) FindLatestByUserID(db *gorm.DB, userID string) (*models.PaymentVerification, error) {
	var v models.PaymentVerification
	err := db.Where("user_id = ?", userID).Order("created_at DESC").First(&v).Error
	if err != nil {
		return nil, notFound(err, ErrVerificationNotFound)
	}
	return &v, nil
}

func (r *verificationRepository) List(db *gorm.DB, filter VerificationFilter) ([]models.PaymentVerification, int64, error) {
	query := db.Model(&models.PaymentVerification{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var items []models.PaymentVerification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (r *verificationRepository) Review(db *gorm.DB, id string, status models.VerificationStatus, reviewerID string, at time.Time) error {
	result := db.Model(&models.PaymentVerification{}).
		Where("id = ? AND status = ?", id, models.VerificationStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVerificationNotPending
	}
	return nil
}

func (r *verificationRepository) CountByStatus(db *gorm.DB, status models.VerificationStatus) (int64, error) {
	var count int64
	err := db.Model(&models.PaymentVerification{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *verificationRepository) ProofPathsByUser(db *gorm.DB, userID string) ([]string, error) {
	var paths []string
	err := db.Model(&models.PaymentVerification{}).
		Where("user_id = ?", userID).
		Pluck("proof_image_path", &paths).Error
	return paths, err
}
