package repositories

import (
	"directory_backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(db *gorm.DB, profile *models.Profile) error
	Update(db *gorm.DB, profile *models.Profile) error
	Delete(db *gorm.DB, id string) error
	FindByID(db *gorm.DB, id string) (*models.Profile, error)
	SlugExists(db *gorm.DB, slug string) (bool, error)
	List(db *gorm.DB, filter ProfileFilter) ([]models.Profile, int64, error)
	SetFlag(db *gorm.DB, id string, column string, value bool) error
	SetImages(db *gorm.DB, id string, images []string) error
	Count(db *gorm.DB) (int64, error)
}

type ProfileFilter struct {
	City     string
	Country  string
	Verified *bool
	Premium  *bool
	Search   string
	Pagination
}

// Колонки-флаги, которые администратор переключает напрямую
const (
	ProfileFlagVerified = "is_verified"
	ProfileFlagPremium  = "is_premium"
)

type profileRepository struct{}

func NewProfileRepository() ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Create(db *gorm.DB, profile *models.Profile) error {
	if err := db.Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *profileRepository) Update(db *gorm.DB, profile *models.Profile) error {
	result := db.Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(map[string]interface{}{
		"name":           profile.Name,
		"age":            profile.Age,
		"location":       profile.Location,
		"city":           profile.City,
		"country":        profile.Country,
		"price_per_hour": profile.PricePerHour,
		"phone":          profile.Phone,
		"video_url":      profile.VideoURL,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Profile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) FindByID(db *gorm.DB, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile, nil
}

func (r *profileRepository) SlugExists(db *gorm.DB, slug string) (bool, error) {
	var count int64
	err := db.Model(&models.Profile{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *profileRepository) List(db *gorm.DB, filter ProfileFilter) ([]models.Profile, int64, error) {
	query := db.Model(&models.Profile{})
	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.Country != "" {
		query = query.Where("LOWER(country) = LOWER(?)", filter.Country)
	}
	if filter.Verified != nil {
		query = query.Where("is_verified = ?", *filter.Verified)
	}
	if filter.Premium != nil {
		query = query.Where("is_premium = ?", *filter.Premium)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var profiles []models.Profile
	err := query.Order("is_premium DESC, created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error
	return profiles, total, err
}

func (r *profileRepository) SetFlag(db *gorm.DB, id string, column string, value bool) error {
	if column != ProfileFlagVerified && column != ProfileFlagPremium {
		return gorm.ErrInvalidField
	}
	result := db.Model(&models.Profile{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) SetImages(db *gorm.DB, id string, images []string) error {
	result := db.Model(&models.Profile{}).Where("id = ?", id).Update("images", pq.StringArray(images))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Profile{}).Count(&count).Error
	return count, err
}
