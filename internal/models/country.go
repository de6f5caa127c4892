package models

// Country - страна с платежными реквизитами для регистрации
type Country struct {
	BaseModel
	Name         string  `gorm:"not null;uniqueIndex" json:"name"`
	Currency     string  `gorm:"type:varchar(3);not null" json:"currency"`
	SignupPrice  float64 `gorm:"type:numeric(12,2);not null;default:0;check:signup_price >= 0" json:"signup_price"`
	PaymentPhone string  `gorm:"not null" json:"payment_phone"`
	PaymentName  string  `gorm:"not null" json:"payment_name"`
	Active       bool    `gorm:"not null;index" json:"active"`
}
