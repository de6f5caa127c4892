package services

import (
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	List(db *gorm.DB, query *dto.UserListQuery) (*dto.PaginatedResponse, error)
}

type UserServiceImpl struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &UserServiceImpl{userRepo: userRepo}
}

// List - обзор пользователей для админки; без строки статуса флаги false
func (s *UserServiceImpl) List(db *gorm.DB, query *dto.UserListQuery) (*dto.PaginatedResponse, error) {
	users, total, err := s.userRepo.List(db, repositories.UserFilter{
		Search:     query.Search,
		Approved:   query.Approved,
		Banned:     query.Banned,
		Pagination: repositories.Pagination{Page: query.Page, PageSize: query.PageSize},
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.UserOverview, 0, len(users))
	for _, u := range users {
		item := dto.UserOverview{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		}
		if u.Status != nil {
			item.Approved = u.Status.Approved
			item.Banned = u.Status.Banned
		}
		items = append(items, item)
	}
	return dto.NewPaginatedResponse(items, total, query.Page, query.PageSize), nil
}
