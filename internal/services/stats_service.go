package services

import (
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type StatsService interface {
	Get(db *gorm.DB) (*dto.Stats, error)
}

type StatsServiceImpl struct {
	verificationRepo repositories.VerificationRepository
	statusRepo       repositories.UserStatusRepository
	profileRepo      repositories.ProfileRepository
}

func NewStatsService(
	verificationRepo repositories.VerificationRepository,
	statusRepo repositories.UserStatusRepository,
	profileRepo repositories.ProfileRepository,
) StatsService {
	return &StatsServiceImpl{
		verificationRepo: verificationRepo,
		statusRepo:       statusRepo,
		profileRepo:      profileRepo,
	}
}

// Get - счетчики дашборда
func (s *StatsServiceImpl) Get(db *gorm.DB) (*dto.Stats, error) {
	var (
		stats dto.Stats
		err   error
	)
	if stats.PendingVerifications, err = s.verificationRepo.CountByStatus(db, models.VerificationStatusPending); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.ApprovedUsers, err = s.statusRepo.CountApproved(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if stats.Profiles, err = s.profileRepo.Count(db); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &stats, nil
}
