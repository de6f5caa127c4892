package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки бизнес-логики, сгруппированные по доменам.
Фабрики ниже используются для оборачивания ошибок репозиториев.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Auth ---

var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid username or password", http.StatusUnauthorized)
	ErrInvalidToken       = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)
	ErrUserBanned         = New(CodeUserBanned, "auth", "User account banned", http.StatusForbidden)
	ErrEmailAlreadyExists = New(CodeEmailAlreadyExists, "auth", "Username is already taken", http.StatusConflict)
	ErrInsufficientRights = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)
	ErrUserNotFound       = New(CodeNotFound, "user", "User not found", http.StatusNotFound)
)

// --- Signup ---

var (
	ErrInvalidSignupStep = New(CodeInvalidSignupStep, "signup", "Action is not allowed at the current signup step", http.StatusConflict)
	ErrCountryNotFound   = New(CodeNotFound, "country", "Country not found", http.StatusNotFound)
	ErrCountryInactive   = New(CodeInvalidOperation, "country", "Country is not available for signup", http.StatusBadRequest)
	ErrCountryExists     = New(CodeAlreadyExists, "country", "Country with this name already exists", http.StatusConflict)
	ErrCountryNotChosen  = New(CodeInvalidOperation, "signup", "Country has not been selected", http.StatusBadRequest)
	ErrCountryInUse      = New(CodeConflict, "country", "Country is used by existing signups, deactivate it instead", http.StatusConflict)
)

// --- Verifications ---

var (
	ErrVerificationNotFound   = New(CodeNotFound, "verification", "Payment verification not found", http.StatusNotFound)
	ErrVerificationNotPending = New(CodeVerificationNotPending, "verification", "Payment verification was already reviewed", http.StatusConflict)
	ErrVerificationPending    = New(CodeVerificationPending, "verification", "Previous payment proof is still under review", http.StatusConflict)
	ErrApprovalFailed         = New(CodeApprovalFailed, "verification", "Approval could not be completed", http.StatusInternalServerError)
)

// --- Profiles ---

var (
	ErrProfileNotFound = New(CodeNotFound, "profile", "Profile not found", http.StatusNotFound)
)

// --- Uploads & Files ---

var (
	ErrFileRequired    = New(CodeValidationFailed, "validation", "File is required", http.StatusBadRequest)
	ErrFileTooLarge    = New(CodeLimitExceeded, "validation", "File size exceeds the allowed limit", http.StatusRequestEntityTooLarge)
	ErrInvalidFileType = New(CodeValidationFailed, "validation", "The provided file type is not allowed", http.StatusUnsupportedMediaType)
	ErrStorageFailure  = New(CodeExternalServiceError, "storage", "File storage is unavailable", http.StatusBadGateway)
)

// --- Platform ---

var (
	ErrDuplicateRequest = New(CodeDuplicateRequest, "request", "The same action is already in progress", http.StatusConflict)
	ErrMaintenance      = New(CodeMaintenance, "site", "Site is under maintenance", http.StatusServiceUnavailable)
)
