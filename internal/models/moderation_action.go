package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ModerationAction - журнал действий администратора
type ModerationAction struct {
	BaseModel
	AdminID    string         `gorm:"type:uuid;not null;index" json:"admin_id"`
	Action     string         `gorm:"type:varchar(32);not null;index" json:"action"`
	TargetType string         `gorm:"type:varchar(32);not null" json:"target_type"`
	TargetID   string         `gorm:"not null;index" json:"target_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
}

// SetDetails сериализует произвольные детали действия
func (m *ModerationAction) SetDetails(details any) {
	if details == nil {
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	m.Details = datatypes.JSON(data)
}
