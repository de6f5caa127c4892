package models

import (
	"time"
)

// SignupProgress - сохраненный шаг мастера регистрации
type SignupProgress struct {
	BaseModel
	UserID    string  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Step      string  `gorm:"type:varchar(32);not null" json:"step"`
	CountryID *string `gorm:"type:uuid" json:"country_id,omitempty"`

	Country *Country `gorm:"foreignKey:CountryID" json:"country,omitempty"`
}

func (SignupProgress) TableName() string {
	return "signup_progress"
}

// PaymentVerification - одна попытка подтверждения оплаты
type PaymentVerification struct {
	BaseModel
	UserID         string             `gorm:"type:uuid;not null;index" json:"user_id"`
	ProofImagePath string             `gorm:"not null" json:"-"`
	ProofImageURL  string             `gorm:"not null" json:"proof_image_url"`
	Status         VerificationStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ReviewedBy     *string            `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
