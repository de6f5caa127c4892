package dto

import (
	"time"
)

// ProfileRequest - создание/обновление карточки
type ProfileRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Age          int     `json:"age" validate:"required,min=18,max=99"`
	Location     string  `json:"location" validate:"max=200"`
	City         string  `json:"city" validate:"required,max=100"`
	Country      string  `json:"country" validate:"required,max=100"`
	PricePerHour float64 `json:"price_per_hour" validate:"gte=0"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	VideoURL     *string `json:"video_url" validate:"omitempty,url"`
}

// ProfileListQuery - фильтр каталога
type ProfileListQuery struct {
	City     string `form:"city"`
	Country  string `form:"country"`
	Verified *bool  `form:"verified"`
	Premium  *bool  `form:"premium"`
	Search   string `form:"search"`
	PageQuery
}

// ImageUpload - одно изображение из multipart
type ImageUpload struct {
	FileName string
	Size     int64
	Data     []byte
}

// ProfileResponse - карточка для публичной части и админки
type ProfileResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Age           int       `json:"age"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	PricePerHour  float64   `json:"price_per_hour"`
	Phone         *string   `json:"phone,omitempty"`
	ContactLocked bool      `json:"contact_locked"`
	VideoURL      *string   `json:"video_url,omitempty"`
	Images        []string  `json:"images"`
	IsVerified    bool      `json:"is_verified"`
	IsPremium     bool      `json:"is_premium"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Viewer - кто смотрит карточку (для скрытия контактов)
type Viewer struct {
	UserID   string
	Approved bool
	Banned   bool
	IsAdmin  bool
}
