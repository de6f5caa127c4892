package models

import (
	"github.com/lib/pq"
)

// Profile - карточка в каталоге
type Profile struct {
	BaseModel
	Name         string         `gorm:"not null" json:"name"`
	Slug         string         `gorm:"not null;uniqueIndex" json:"slug"`
	Age          int            `gorm:"not null" json:"age"`
	Location     string         `json:"location"`
	City         string         `gorm:"index" json:"city"`
	Country      string         `gorm:"index" json:"country"`
	PricePerHour float64        `gorm:"type:numeric(12,2);not null;default:0" json:"price_per_hour"`
	Phone        *string        `json:"phone,omitempty"`
	VideoURL     *string        `json:"video_url,omitempty"`
	Images       pq.StringArray `gorm:"type:text[]" json:"images"`
	IsVerified   bool           `gorm:"not null;default:false" json:"is_verified"`
	IsPremium    bool           `gorm:"not null;default:false" json:"is_premium"`
}
