package services

import (
	"context"

	"directory_backend/internal/logger"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"

	"gorm.io/gorm"
)

// Действия журнала модерации
const (
	ActionApprove       = "approve"
	ActionDecline       = "decline"
	ActionBan           = "ban"
	ActionUnban         = "unban"
	ActionVerified      = "profile_verified"
	ActionPremium       = "profile_premium"
	ActionSiteStatus    = "site_status"
	ActionCountryCreate = "country_create"
	ActionCountryUpdate = "country_update"
	ActionCountryDelete = "country_delete"
	ActionProfileCreate = "profile_create"
	ActionProfileUpdate = "profile_update"
	ActionProfileDelete = "profile_delete"
)

// Типы целей
const (
	TargetVerification = "verification"
	TargetUser         = "user"
	TargetProfile      = "profile"
	TargetSite         = "site"
	TargetCountry      = "country"
)

// auditor пишет журнал действий администратора; сбой записи не отменяет действие
type auditor struct {
	repo repositories.ModerationRepository
}

func (a auditor) record(ctx context.Context, db *gorm.DB, adminID, action, targetType, targetID string, details any, actionErr error) {
	logger.ModerationLog(adminID, action, targetType, targetID, actionErr)
	if actionErr != nil || a.repo == nil || adminID == "" {
		return
	}

	entry := &models.ModerationAction{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	entry.SetDetails(details)

	if err := a.repo.Create(db, entry); err != nil {
		logger.CtxWithError(ctx, "Failed to write moderation audit", err, "action", action, "target_id", targetID)
	}
}
