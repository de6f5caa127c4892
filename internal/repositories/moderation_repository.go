package repositories

import (
	"directory_backend/internal/models"

	"gorm.io/gorm"
)

// ModerationRepository - журнал действий администраторов
type ModerationRepository interface {
	Create(db *gorm.DB, action *models.ModerationAction) error
	List(db *gorm.DB, filter ModerationFilter) ([]models.ModerationAction, int64, error)
}

type ModerationFilter struct {
	AdminID  string
	Action   string
	TargetID string
	Pagination
}

type moderationRepository struct{}

func NewModerationRepository() ModerationRepository {
	return &moderationRepository{}
}

func (r *moderationRepository) Create(db *gorm.DB, action *models.ModerationAction) error {
	return db.Create(action).Error
}

func (r *moderationRepository) List(db *gorm.DB, filter ModerationFilter) ([]models.ModerationAction, int64, error) {
	query := db.Model(&models.ModerationAction{})
	if filter.AdminID != "" {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var items []models.ModerationAction
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}
