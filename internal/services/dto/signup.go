package dto

import (
	"directory_backend/internal/models"
	"directory_backend/internal/signup"
)

// RegisterRequest - первый шаг мастера
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// RegisterResponse - сессия для следующих шагов
type RegisterResponse struct {
	UserID  string        `json:"user_id"`
	Step    signup.Step   `json:"step"`
	Session *AuthResponse `json:"session"`
}

// SelectCountryRequest - выбор страны
type SelectCountryRequest struct {
	CountryID string `json:"country_id" validate:"required,uuid"`
}

// CountryOption - страна в списке мастера
type CountryOption struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Currency        string  `json:"currency"`
	SignupPrice     float64 `json:"signup_price"`
	FormattedAmount string  `json:"formatted_amount"`
}

// PaymentInstructions - реквизиты для оплаты
type PaymentInstructions struct {
	Country         string  `json:"country"`
	PaymentPhone    string  `json:"payment_phone"`
	PaymentName     string  `json:"payment_name"`
	SignupPrice     float64 `json:"signup_price"`
	Currency        string  `json:"currency"`
	FormattedAmount string  `json:"formatted_amount"`
	Reference       string  `json:"reference"`
}

// ProofUpload - файл подтверждения оплаты
type ProofUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// ProofResponse - пруф принят, пользователь разлогинен
type ProofResponse struct {
	VerificationID string                    `json:"verification_id"`
	Status         models.VerificationStatus `json:"status"`
	Step           signup.Step               `json:"step"`
	Redirect       string                    `json:"redirect"`
}

// SignupState - текущий шаг и, на подтверждении, статус проверки
type SignupState struct {
	Step               signup.Step                `json:"step"`
	CountryID          *string                    `json:"country_id,omitempty"`
	VerificationStatus *models.VerificationStatus `json:"verification_status,omitempty"`
	CanResubmit        bool                       `json:"can_resubmit"`
}
