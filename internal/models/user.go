package models

import "time"

// User - учетная запись. Email хранит синтетический логин (username@login_domain).
type User struct {
	BaseModel
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relations
	Status        *UserStatus    `gorm:"foreignKey:UserID" json:"status,omitempty"`
	Roles         []UserRole     `gorm:"foreignKey:UserID" json:"-"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}

// UserStatus - один к одному с User; пишется только через upsert по user_id
type UserStatus struct {
	BaseModel
	UserID   string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Banned   bool   `gorm:"not null;default:false" json:"banned"`
	Approved bool   `gorm:"not null;default:false" json:"approved"`
}

func (UserStatus) TableName() string {
	return "user_statuses"
}

// UserRole - выданная пользователю возможность (capability)
type UserRole struct {
	BaseModel
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_capability" json:"user_id"`
	Capability Capability `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_capability" json:"capability"`
}
