package services

import (
	"context"
	"errors"
	"strings"

	"directory_backend/internal/currency"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/pkg/apperrors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type CountryService interface {
	List(db *gorm.DB) ([]models.Country, error)
	Get(db *gorm.DB, id string) (*models.Country, error)
	Create(ctx context.Context, db *gorm.DB, adminID string, req *dto.CountryRequest) (*models.Country, error)
	Update(ctx context.Context, db *gorm.DB, adminID, id string, req *dto.CountryRequest) (*models.Country, error)
	Delete(ctx context.Context, db *gorm.DB, adminID, id string) error
}

type CountryServiceImpl struct {
	countryRepo repositories.CountryRepository
	audit       auditor
}

func NewCountryService(countryRepo repositories.CountryRepository, moderationRepo repositories.ModerationRepository) CountryService {
	return &CountryServiceImpl{
		countryRepo: countryRepo,
		audit:       auditor{repo: moderationRepo},
	}
}

// NormalizeCountryName - обрезка пробелов и Title Case ("south  africa" -> "South Africa")
func NormalizeCountryName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.English).String(strings.ToLower(name))
}

func (s *CountryServiceImpl) List(db *gorm.DB) ([]models.Country, error) {
	countries, err := s.countryRepo.ListAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return countries, nil
}

func (s *CountryServiceImpl) Get(db *gorm.DB, id string) (*models.Country, error) {
	country, err := s.countryRepo.FindByID(db, id)
	if err != nil {
		return nil, handleCountryError(err)
	}
	return country, nil
}

func (s *CountryServiceImpl) Create(ctx context.Context, db *gorm.DB, adminID string, req *dto.CountryRequest) (*models.Country, error) {
	country, err := buildCountry(req)
	if err != nil {
		return nil, err
	}
	country.Active = true
	if req.Active != nil {
		country.Active = *req.Active
	}

	if err := s.ensureUniqueName(db, country.Name, ""); err != nil {
		return nil, err
	}

	err = s.countryRepo.Create(db, country)
	s.audit.record(ctx, db, adminID, ActionCountryCreate, TargetCountry, country.ID, country, err)
	if err != nil {
		return nil, handleCountryError(err)
	}
	return country, nil
}

func (s *CountryServiceImpl) Update(ctx context.Context, db *gorm.DB, adminID, id string, req *dto.CountryRequest) (*models.Country, error) {
	existing, err := s.countryRepo.FindByID(db, id)
	if err != nil {
		return nil, handleCountryError(err)
	}

	country, err := buildCountry(req)
	if err != nil {
		return nil, err
	}
	country.ID = existing.ID
	country.CreatedAt = existing.CreatedAt
	country.Active = existing.Active
	if req.Active != nil {
		country.Active = *req.Active
	}

	if err := s.ensureUniqueName(db, country.Name, id); err != nil {
		return nil, err
	}

	err = s.countryRepo.Update(db, country)
	s.audit.record(ctx, db, adminID, ActionCountryUpdate, TargetCountry, id, country, err)
	if err != nil {
		return nil, handleCountryError(err)
	}
	return s.Get(db, id)
}

func (s *CountryServiceImpl) Delete(ctx context.Context, db *gorm.DB, adminID, id string) error {
	err := s.countryRepo.Delete(db, id)
	s.audit.record(ctx, db, adminID, ActionCountryDelete, TargetCountry, id, nil, err)
	if err != nil {
		return handleCountryError(err)
	}
	return nil
}

// ensureUniqueName - имя уникально без учета регистра
func (s *CountryServiceImpl) ensureUniqueName(db *gorm.DB, name, exceptID string) error {
	found, err := s.countryRepo.FindByName(db, name)
	if err != nil {
		if errors.Is(err, repositories.ErrCountryNotFound) {
			return nil
		}
		return apperrors.InternalError(err)
	}
	if found.ID != exceptID {
		return apperrors.ErrCountryExists
	}
	return nil
}

func buildCountry(req *dto.CountryRequest) (*models.Country, error) {
	fields := map[string]string{}

	name := NormalizeCountryName(req.Name)
	if name == "" {
		fields["name"] = "This field is required"
	}
	code := currency.Normalize(req.Currency)
	if !currency.IsSupported(code) {
		fields["currency"] = "Unsupported currency"
	}
	if req.SignupPrice < 0 {
		fields["signup_price"] = "Must be greater than or equal to 0"
	}
	if len(fields) > 0 {
		return nil, apperrors.ValidationError(fields)
	}

	return &models.Country{
		Name:         name,
		Currency:     code,
		SignupPrice:  req.SignupPrice,
		PaymentPhone: strings.TrimSpace(req.PaymentPhone),
		PaymentName:  strings.TrimSpace(req.PaymentName),
	}, nil
}

func handleCountryError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCountryNotFound):
		return apperrors.ErrCountryNotFound
	case errors.Is(err, repositories.ErrCountryAlreadyExists):
		return apperrors.ErrCountryExists
	case errors.Is(err, repositories.ErrCountryInUse):
		return apperrors.ErrCountryInUse
	default:
		return apperrors.InternalError(err)
	}
}
