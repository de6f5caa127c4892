package models

import "time"

// GlobalSiteStatusID - единственная строка site_statuses
const GlobalSiteStatusID = "global"

// SiteStatus - глобальный выключатель сайта
type SiteStatus struct {
	ID                 string    `gorm:"type:varchar(16);primaryKey" json:"id"`
	IsOnline           bool      `gorm:"not null" json:"is_online"`
	MaintenanceMessage string    `json:"maintenance_message"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UpdatedBy          *string   `gorm:"type:uuid" json:"updated_by,omitempty"`
}

// DefaultSiteStatus - состояние, если строка еще не создана
func DefaultSiteStatus() SiteStatus {
	return SiteStatus{ID: GlobalSiteStatusID, IsOnline: true}
}
