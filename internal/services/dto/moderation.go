package dto

import (
	"time"

	"directory_backend/internal/models"
)

// VerificationListQuery - фильтр очереди проверок
type VerificationListQuery struct {
	Status string `form:"status" validate:"omitempty,is-verification-status"`
	PageQuery
}

// VerificationItem - проверка с данными пользователя
type VerificationItem struct {
	ID            string                    `json:"id"`
	UserID        string                    `json:"user_id"`
	Username      string                    `json:"username"`
	Email         string                    `json:"email,omitempty"`
	ProofImageURL string                    `json:"proof_image_url"`
	Status        models.VerificationStatus `json:"status"`
	ReviewedBy    *string                   `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time                `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// BanRequest - бан/разбан пользователя
type BanRequest struct {
	Banned *bool `json:"banned" validate:"required"`
}

// SiteStatusRequest - выключатель сайта
type SiteStatusRequest struct {
	IsOnline           *bool  `json:"is_online" validate:"required"`
	MaintenanceMessage string `json:"maintenance_message" validate:"max=500"`
}

// AuditQuery - фильтр журнала модерации
type AuditQuery struct {
	AdminID  string `form:"admin_id" validate:"omitempty,uuid"`
	Action   string `form:"action"`
	TargetID string `form:"target_id"`
	PageQuery
}

// UserListQuery - фильтр списка пользователей
type UserListQuery struct {
	Search   string `form:"search"`
	Approved *bool  `form:"approved"`
	Banned   *bool  `form:"banned"`
	PageQuery
}

// UserOverview - строка списка пользователей в админке
type UserOverview struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Approved  bool      `json:"approved"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats - счетчики для дашборда
type Stats struct {
	PendingVerifications int64 `json:"pending_verifications"`
	ApprovedUsers        int64 `json:"approved_users"`
	Profiles             int64 `json:"profiles"`
}
