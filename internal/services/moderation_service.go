package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"directory_backend/internal/dedup"
	"directory_backend/internal/email"
	"directory_backend/internal/events"
	"directory_backend/internal/logger"
	"directory_backend/internal/metrics"
	"directory_backend/internal/models"
	"directory_backend/internal/notify"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/storage"
	"directory_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// SiteStatusCache - процессный кэш выключателя сайта
type SiteStatusCache interface {
	Current() models.SiteStatus
	Set(status models.SiteStatus)
}

type ModerationService interface {
	ListVerifications(ctx context.Context, db *gorm.DB, query *dto.VerificationListQuery) (*dto.PaginatedResponse, error)
	Approve(ctx context.Context, db *gorm.DB, adminID, verificationID string) (*dto.VerificationItem, error)
	Decline(ctx context.Context, db *gorm.DB, adminID, verificationID string) (*dto.VerificationItem, error)
	SetBanned(ctx context.Context, db *gorm.DB, adminID, userID string, banned bool) (*dto.UserStatusDTO, error)
	SetProfileVerified(ctx context.Context, db *gorm.DB, adminID, profileID string, value bool) (*dto.ProfileResponse, error)
	SetProfilePremium(ctx context.Context, db *gorm.DB, adminID, profileID string, value bool) (*dto.ProfileResponse, error)
	GetSiteStatus() models.SiteStatus
	UpdateSiteStatus(ctx context.Context, db *gorm.DB, adminID string, req *dto.SiteStatusRequest) (*models.SiteStatus, error)
	ListAudit(db *gorm.DB, query *dto.AuditQuery) (*dto.PaginatedResponse, error)
}

type ModerationServiceImpl struct {
	verificationRepo repositories.VerificationRepository
	statusRepo       repositories.UserStatusRepository
	userRepo         repositories.UserRepository
	siteStatusRepo   repositories.SiteStatusRepository
	moderationRepo   repositories.ModerationRepository
	authService      AuthService
	profileService   ProfileService
	storage          storage.Storage
	cache            SiteStatusCache
	guard            *dedup.Guard
	events           EventEmitter
	notifier         notify.Notifier
	signedURLTTL     time.Duration
	audit            auditor
	now              func() time.Time
}

func NewModerationService(
	verificationRepo repositories.VerificationRepository,
	statusRepo repositories.UserStatusRepository,
	userRepo repositories.UserRepository,
	siteStatusRepo repositories.SiteStatusRepository,
	moderationRepo repositories.ModerationRepository,
	authService AuthService,
	profileService ProfileService,
	store storage.Storage,
	cache SiteStatusCache,
	guard *dedup.Guard,
	emitter EventEmitter,
	notifier notify.Notifier,
	signedURLTTL time.Duration,
) ModerationService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ModerationServiceImpl{
		verificationRepo: verificationRepo,
		statusRepo:       statusRepo,
		userRepo:         userRepo,
		siteStatusRepo:   siteStatusRepo,
		moderationRepo:   moderationRepo,
		authService:      authService,
		profileService:   profileService,
		storage:          store,
		cache:            cache,
		guard:            guard,
		events:           emitter,
		notifier:         notifier,
		signedURLTTL:     signedURLTTL,
		audit:            auditor{repo: moderationRepo},
		now:              time.Now,
	}
}

// ============================================================================
// Очередь проверок
// ============================================================================

// ListVerifications - от новых к старым, с username/email. Сбой поиска
// пользователей не ломает список: подставляется "Unknown user (<id>)".
func (s *ModerationServiceImpl) ListVerifications(ctx context.Context, db *gorm.DB, query *dto.VerificationListQuery) (*dto.PaginatedResponse, error) {
	filter := repositories.VerificationFilter{
		Status:     models.VerificationStatus(query.Status),
		Pagination: repositories.Pagination{Page: query.Page, PageSize: query.PageSize},
	}

	rows, total, err := s.verificationRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	users := s.lookupUsers(ctx, db, rows)

	items := make([]dto.VerificationItem, 0, len(rows))
	for i := range rows {
		item := s.toItem(ctx, &rows[i])
		if u, ok := users[rows[i].UserID]; ok {
			item.Username = u.Username
			item.Email = u.Email
		} else {
			item.Username = UnknownUserLabel(rows[i].UserID)
		}
		items = append(items, item)
	}

	return dto.NewPaginatedResponse(items, total, query.Page, query.PageSize), nil
}

// UnknownUserLabel - подпись для проверки без найденного пользователя
func UnknownUserLabel(userID string) string {
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Unknown user (%s)", short)
}

func (s *ModerationServiceImpl) lookupUsers(ctx context.Context, db *gorm.DB, rows []models.PaymentVerification) map[string]models.User {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	result := make(map[string]models.User, len(ids))
	users, err := s.userRepo.FindByIDs(db, ids)
	if err != nil {
		logger.CtxWarn(ctx, "User lookup for verifications failed", "error", err, "count", len(ids))
		return result
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result
}

// ============================================================================
// Approve / Decline
// ============================================================================

// Approve в одной транзакции переводит проверку pending -> approved
// и выставляет user_statuses.approved = true. Любой сбой откатывает обе записи.
func (s *ModerationServiceImpl) Approve(ctx context.Context, db *gorm.DB, adminID, verificationID string) (*dto.VerificationItem, error) {
	item, err := runOnce(ctx, s.guard, "approve-"+verificationID, func(ctx context.Context) (*dto.VerificationItem, error) {
		return s.approve(ctx, db, adminID, verificationID)
	})
	metrics.ModerationDecisionsTotal.WithLabelValues(ActionApprove, metrics.Result(err)).Inc()
	return item, err
}

func (s *ModerationServiceImpl) approve(ctx context.Context, db *gorm.DB, adminID, verificationID string) (*dto.VerificationItem, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ErrApprovalFailed.WithError(tx.Error)
	}
	defer tx.Rollback()

	v, err := s.verificationRepo.FindByID(tx, verificationID)
	if err != nil {
		return nil, handleVerificationError(err)
	}
	if v.Status != models.VerificationStatusPending {
		return nil, apperrors.ErrVerificationNotPending
	}

	now := s.now().UTC()
	if err := s.verificationRepo.Review(tx, v.ID, models.VerificationStatusApproved, adminID, now); err != nil {
		if errors.Is(err, repositories.ErrVerificationNotPending) {
			return nil, apperrors.ErrVerificationNotPending
		}
		return nil, apperrors.ErrApprovalFailed.WithError(err)
	}
	if err := s.statusRepo.UpsertApproved(tx, v.UserID, true); err != nil {
		s.audit.record(ctx, db, adminID, ActionApprove, TargetVerification, v.ID, nil, err)
		return nil, apperrors.ErrApprovalFailed.WithError(err)
	}
	if err := tx.Commit().Error; err != nil {
		s.audit.record(ctx, db, adminID, ActionApprove, TargetVerification, v.ID, nil, err)
		return nil, apperrors.ErrApprovalFailed.WithError(err)
	}

	v.Status = models.VerificationStatusApproved
	v.ReviewedBy = &adminID
	v.ReviewedAt = &now

	s.audit.record(ctx, db, adminID, ActionApprove, TargetVerification, v.ID, map[string]string{"user_id": v.UserID}, nil)
	s.publishReviewed(ctx, v)

	item := s.toItem(ctx, v)
	return &item, nil
}

// Decline - только pending -> declined; статус пользователя не меняется
func (s *ModerationServiceImpl) Decline(ctx context.Context, db *gorm.DB, adminID, verificationID string) (*dto.VerificationItem, error) {
	item, err := runOnce(ctx, s.guard, "decline-"+verificationID, func(ctx context.Context) (*dto.VerificationItem, error) {
		v, err := s.verificationRepo.FindByID(db, verificationID)
		if err != nil {
			return nil, handleVerificationError(err)
		}
		if v.Status != models.VerificationStatusPending {
			return nil, apperrors.ErrVerificationNotPending
		}

		now := s.now().UTC()
		err = s.verificationRepo.Review(db, v.ID, models.VerificationStatusDeclined, adminID, now)
		s.audit.record(ctx, db, adminID, ActionDecline, TargetVerification, v.ID, map[string]string{"user_id": v.UserID}, err)
		if err != nil {
			return nil, handleVerificationError(err)
		}

		v.Status = models.VerificationStatusDeclined
		v.ReviewedBy = &adminID
		v.ReviewedAt = &now
		s.publishReviewed(ctx, v)

		item := s.toItem(ctx, v)
		return &item, nil
	})
	metrics.ModerationDecisionsTotal.WithLabelValues(ActionDecline, metrics.Result(err)).Inc()
	return item, err
}

func (s *ModerationServiceImpl) publishReviewed(ctx context.Context, v *models.PaymentVerification) {
	payload := map[string]any{
		"verification_id": v.ID,
		"user_id":         v.UserID,
		"status":          v.Status,
	}
	emit(ctx, s.events, events.TypeVerificationReviewed, events.TopicModeration, v.ID, payload)
	// пользователь на экране подтверждения получает новый статус
	emit(ctx, s.events, events.TypeVerificationReviewed, events.SessionTopic(v.UserID), v.UserID, payload)
}

// ============================================================================
// Пользователи и карточки
// ============================================================================

// SetBanned - upsert флага banned; новая строка получает approved=false.
// Бан завершает все сессии пользователя.
func (s *ModerationServiceImpl) SetBanned(ctx context.Context, db *gorm.DB, adminID, userID string, banned bool) (*dto.UserStatusDTO, error) {
	action := ActionUnban
	if banned {
		action = ActionBan
	}

	status, err := runOnce(ctx, s.guard, fmt.Sprintf("ban-%s-%t-%s", userID, banned, adminID), func(ctx context.Context) (*dto.UserStatusDTO, error) {
		if _, err := s.userRepo.FindByID(db, userID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			return nil, apperrors.InternalError(err)
		}

		err := s.statusRepo.UpsertBanned(db, userID, banned)
		s.audit.record(ctx, db, adminID, action, TargetUser, userID, nil, err)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		if banned {
			if err := s.authService.SignOut(ctx, db, userID); err != nil {
				logger.CtxWithError(ctx, "Failed to revoke sessions of banned user", err, "user_id", userID)
			}
		}
		emit(ctx, s.events, events.TypeUserBanned, events.SessionTopic(userID), userID, map[string]any{
			"user_id": userID,
			"banned":  banned,
		})

		row, err := s.statusRepo.FindByUserID(db, userID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return &dto.UserStatusDTO{Approved: row.Approved, Banned: row.Banned}, nil
	})
	metrics.ModerationDecisionsTotal.WithLabelValues(action, metrics.Result(err)).Inc()
	return status, err
}

func (s *ModerationServiceImpl) SetProfileVerified(ctx context.Context, db *gorm.DB, adminID, profileID string, value bool) (*dto.ProfileResponse, error) {
	return s.setProfileFlag(ctx, db, adminID, profileID, repositories.ProfileFlagVerified, ActionVerified, value)
}

func (s *ModerationServiceImpl) SetProfilePremium(ctx context.Context, db *gorm.DB, adminID, profileID string, value bool) (*dto.ProfileResponse, error) {
	return s.setProfileFlag(ctx, db, adminID, profileID, repositories.ProfileFlagPremium, ActionPremium, value)
}

func (s *ModerationServiceImpl) setProfileFlag(ctx context.Context, db *gorm.DB, adminID, profileID, flag, action string, value bool) (*dto.ProfileResponse, error) {
	resp, err := s.profileService.SetFlag(ctx, db, profileID, flag, value)
	s.audit.record(ctx, db, adminID, action, TargetProfile, profileID, map[string]bool{"value": value}, err)
	metrics.ModerationDecisionsTotal.WithLabelValues(action, metrics.Result(err)).Inc()
	return resp, err
}

// ============================================================================
// Выключатель сайта
// ============================================================================

func (s *ModerationServiceImpl) GetSiteStatus() models.SiteStatus {
	return s.cache.Current()
}

// UpdateSiteStatus сохраняет строку "global", обновляет кэш процесса
// и публикует изменение остальным инстансам и websocket-клиентам.
func (s *ModerationServiceImpl) UpdateSiteStatus(ctx context.Context, db *gorm.DB, adminID string, req *dto.SiteStatusRequest) (*models.SiteStatus, error) {
	key := "site-status-" + dedup.Fingerprint(*req.IsOnline, strings.TrimSpace(req.MaintenanceMessage), adminID)
	status, err := runOnce(ctx, s.guard, key, func(ctx context.Context) (*models.SiteStatus, error) {
		status := &models.SiteStatus{
			ID:                 models.GlobalSiteStatusID,
			IsOnline:           *req.IsOnline,
			MaintenanceMessage: strings.TrimSpace(req.MaintenanceMessage),
			UpdatedAt:          s.now().UTC(),
			UpdatedBy:          &adminID,
		}

		err := s.siteStatusRepo.Save(db, status)
		s.audit.record(ctx, db, adminID, ActionSiteStatus, TargetSite, models.GlobalSiteStatusID, status, err)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		s.cache.Set(*status)
		emit(ctx, s.events, events.TypeSiteStatusChanged, events.TopicSiteStatus, models.GlobalSiteStatusID, status)

		notify.Async(ctx, s.notifier, notify.Notification{
			Subject:  "Site status changed",
			Text:     siteStatusText(status),
			Template: email.TemplateSiteStatusChanged,
			Data: map[string]interface{}{
				"IsOnline": status.IsOnline,
				"Message":  status.MaintenanceMessage,
			},
		})
		return status, nil
	})
	metrics.ModerationDecisionsTotal.WithLabelValues(ActionSiteStatus, metrics.Result(err)).Inc()
	return status, err
}

func siteStatusText(status *models.SiteStatus) string {
	if status.IsOnline {
		return "Site is online"
	}
	if status.MaintenanceMessage == "" {
		return "Site is offline"
	}
	return "Site is offline: " + status.MaintenanceMessage
}

// ============================================================================
// Журнал
// ============================================================================

func (s *ModerationServiceImpl) ListAudit(db *gorm.DB, query *dto.AuditQuery) (*dto.PaginatedResponse, error) {
	rows, total, err := s.moderationRepo.List(db, repositories.ModerationFilter{
		AdminID:    query.AdminID,
		Action:     query.Action,
		TargetID:   query.TargetID,
		Pagination: repositories.Pagination{Page: query.Page, PageSize: query.PageSize},
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(rows, total, query.Page, query.PageSize), nil
}

// ============================================================================
// Вспомогательные
// ============================================================================

// toItem переподписывает ссылку на пруф (подписанная, иначе публичная)
func (s *ModerationServiceImpl) toItem(ctx context.Context, v *models.PaymentVerification) dto.VerificationItem {
	url := v.ProofImageURL
	if v.ProofImagePath != "" && s.storage != nil {
		if resolved, err := storage.ResolveURL(ctx, s.storage, v.ProofImagePath, s.signedURLTTL); err == nil {
			url = resolved
		} else {
			logger.CtxWarn(ctx, "Failed to resolve proof URL", "verification_id", v.ID, "error", err)
		}
	}
	return dto.VerificationItem{
		ID:            v.ID,
		UserID:        v.UserID,
		ProofImageURL: url,
		Status:        v.Status,
		ReviewedBy:    v.ReviewedBy,
		ReviewedAt:    v.ReviewedAt,
		CreatedAt:     v.CreatedAt,
	}
}

func handleVerificationError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrVerificationNotFound):
		return apperrors.ErrVerificationNotFound
	case errors.Is(err, repositories.ErrVerificationNotPending):
		return apperrors.ErrVerificationNotPending
	default:
		return apperrors.InternalError(err)
	}
}
