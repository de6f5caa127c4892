package repositories

import (
	"directory_backend/internal/models"

	"gorm.io/gorm"
)

type CountryRepository interface {
	Create(db *gorm.DB, country *models.Country) error
	Update(db *gorm.DB, country *models.Country) error
	Delete(db *gorm.DB, id string) error
	FindByID(db *gorm.DB, id string) (*models.Country, error)
	// FindByName ищет без учета регистра
	FindByName(db *gorm.DB, name string) (*models.Country, error)
	ListActive(db *gorm.DB) ([]models.Country, error)
	ListAll(db *gorm.DB) ([]models.Country, error)
}

type countryRepository struct{}

func NewCountryRepository() CountryRepository {
	return &countryRepository{}
}

func (r *countryRepository) Create(db *gorm.DB, country *models.Country) error {
	if err := db.Create(country).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrCountryAlreadyExists
		}
		return err
	}
	return nil
}

func (r *countryRepository) Update(db *gorm.DB, country *models.Country) error {
	result := db.Model(&models.Country{}).Where("id = ?", country.ID).Updates(map[string]interface{}{
		"name":          country.Name,
		"currency":      country.Currency,
		"signup_price":  country.SignupPrice,
		"payment_phone": country.PaymentPhone,
		"payment_name":  country.PaymentName,
		"active":        country.Active,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrCountryAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCountryNotFound
	}
	return nil
}

func (r *countryRepository) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Country{}, "id = ?", id)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			return ErrCountryInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCountryNotFound
	}
	return nil
}

func (r *countryRepository) FindByID(db *gorm.DB, id string) (*models.Country, error) {
	var country models.Country
	if err := db.First(&country, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrCountryNotFound)
	}
	return &country, nil
}

func (r *countryRepository) FindByName(db *gorm.DB, name string) (*models.Country, error) {
	var country models.Country
	if err := db.Where("LOWER(name) = LOWER(?)", name).First(&country).Error; err != nil {
		return nil, notFound(err, ErrCountryNotFound)
	}
	return &country, nil
}

func (r *countryRepository) ListActive(db *gorm.DB) ([]models.Country, error) {
	var countries []models.Country
	err := db.Where("active = ?", true).Order("name ASC").Find(&countries).Error
	return countries, err
}

func (r *countryRepository) ListAll(db *gorm.DB) ([]models.Country, error) {
	var countries []models.Country
	err := db.Order("name ASC").Find(&countries).Error
	return countries, err
}
