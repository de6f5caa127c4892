package dto

import (
	"time"

	"directory_backend/internal/signup"
)

// LoginRequest - вход по имени пользователя или логину
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest - запрос обновления токена
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserDTO - базовая информация о пользователе
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStatusDTO - флаги модерации пользователя
type UserStatusDTO struct {
	Approved bool `json:"approved"`
	Banned   bool `json:"banned"`
}

// AuthResponse - сессия: access + refresh токены
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserDTO   `json:"user"`
}

// SessionInfo - текущая сессия для гейта и клиента
type SessionInfo struct {
	User       UserDTO       `json:"user"`
	Status     UserStatusDTO `json:"status"`
	IsAdmin    bool          `json:"is_admin"`
	SignupStep signup.Step   `json:"signup_step,omitempty"`
}
