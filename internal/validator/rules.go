package validator

import (
	"log"

	"directory_backend/internal/auth"
	"directory_backend/internal/currency"
	"directory_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные правила валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// ошибка времени запуска
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("username", validateUsername)
	mustRegister("is-currency", validateCurrency)
	mustRegister("is-verification-status", validateVerificationStatus)
}

// --- Функции валидации ---
// Пустые значения пропускаем, для них есть 'required'

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return auth.ValidUsername(value)
}

func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return currency.IsSupported(value)
}

func validateVerificationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.VerificationStatus(value).IsValid()
}
