package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrRefreshTokenNotFound   = errors.New("refresh token not found")
	ErrUserStatusNotFound     = errors.New("user status not found")
	ErrCountryNotFound        = errors.New("country not found")
	ErrCountryAlreadyExists   = errors.New("country already exists")
	ErrCountryInUse           = errors.New("country is referenced by signups")
	ErrProgressNotFound       = errors.New("signup progress not found")
	ErrStepConflict           = errors.New("signup step changed concurrently")
	ErrVerificationNotFound   = errors.New("payment verification not found")
	ErrVerificationNotPending = errors.New("payment verification is not pending")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrSlugTaken              = errors.New("profile slug already taken")
	ErrSiteStatusNotFound     = errors.New("site status not found")
)

// notFound переводит gorm.ErrRecordNotFound в доменную ошибку
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isUniqueViolation - postgres 23505 (pgx и lib/pq формулируют по-разному)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

// isForeignKeyViolation - postgres 23503
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23503") || strings.Contains(msg, "foreign key")
}

// Pagination - общие параметры постраничной выборки
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) normalize() (limit, offset int) {
	page, size := p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return size, (page - 1) * size
}
