package dto

// CountryRequest - создание/обновление страны
type CountryRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Currency     string  `json:"currency" validate:"required,is-currency"`
	SignupPrice  float64 `json:"signup_price" validate:"gte=0"`
	PaymentPhone string  `json:"payment_phone" validate:"required,max=32"`
	PaymentName  string  `json:"payment_name" validate:"required,max=100"`
	Active       *bool   `json:"active"`
}
