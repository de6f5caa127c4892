package repositories

import (
	"errors"
	"strings"

	"directory_backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	FindByIDs(db *gorm.DB, ids []string) ([]models.User, error)
	List(db *gorm.DB, filter UserFilter) ([]models.User, int64, error)
}

type UserFilter struct {
	Search   string
	Approved *bool
	Banned   *bool
	Pagination
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ? OR username = ?", user.Email, user.Username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Preload("Status").First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Preload("Status").First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Preload("Status").First(&user, "username = ?", strings.ToLower(username)).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// FindByIDs - пакетная выборка для обогащения списков; отсутствующие id просто пропускаются
func (r *userRepository) FindByIDs(db *gorm.DB, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) List(db *gorm.DB, filter UserFilter) ([]models.User, int64, error) {
	query := db.Model(&models.User{}).
		Joins("LEFT JOIN user_statuses ON user_statuses.user_id = users.id")

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("users.username LIKE ? OR users.email LIKE ?", like, like)
	}
	if filter.Approved != nil {
		query = query.Where("COALESCE(user_statuses.approved, false) = ?", *filter.Approved)
	}
	if filter.Banned != nil {
		query = query.Where("COALESCE(user_statuses.banned, false) = ?", *filter.Banned)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := filter.normalize()
	var users []models.User
	err := query.Preload("Status").
		Order("users.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}
	return users, total, nil
}
