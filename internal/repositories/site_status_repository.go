package repositories

import (
	"directory_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SiteStatusRepository interface {
	Get(db *gorm.DB) (*models.SiteStatus, error)
	Save(db *gorm.DB, status *models.SiteStatus) error
	// EnsureDefault создает строку "global" (online), если ее нет
	EnsureDefault(db *gorm.DB) error
}

type siteStatusRepository struct{}

func NewSiteStatusRepository() SiteStatusRepository {
	return &siteStatusRepository{}
}

func (r *siteStatusRepository) Get(db *gorm.DB) (*models.SiteStatus, error) {
	var status models.SiteStatus
	if err := db.First(&status, "id = ?", models.GlobalSiteStatusID).Error; err != nil {
		return nil, notFound(err, ErrSiteStatusNotFound)
	}
	return &status, nil
}

func (r *siteStatusRepository) Save(db *gorm.DB, status *models.SiteStatus) error {
	status.ID = models.GlobalSiteStatusID
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_online", "maintenance_message", "updated_at", "updated_by"}),
	}).Create(status).Error
}

func (r *siteStatusRepository) EnsureDefault(db *gorm.DB) error {
	def := models.DefaultSiteStatus()
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&def).Error
}
