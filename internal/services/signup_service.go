package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/currency"
	"directory_backend/internal/dedup"
	"directory_backend/internal/email"
	"directory_backend/internal/events"
	"directory_backend/internal/logger"
	"directory_backend/internal/metrics"
	"directory_backend/internal/models"
	"directory_backend/internal/notify"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/signup"
	"directory_backend/internal/storage"
	"directory_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginRedirect - куда клиент уходит после отправки пруфа
const LoginRedirect = "/login"

type SignupService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	ListCountries(db *gorm.DB) ([]dto.CountryOption, error)
	SelectCountry(db *gorm.DB, userID string, req *dto.SelectCountryRequest) (*dto.SignupState, error)
	Instructions(db *gorm.DB, userID string) (*dto.PaymentInstructions, error)
	MarkPaid(db *gorm.DB, userID string) (*dto.SignupState, error)
	SubmitProof(ctx context.Context, db *gorm.DB, userID string, upload *dto.ProofUpload) (*dto.ProofResponse, error)
	State(db *gorm.DB, userID string) (*dto.SignupState, error)
}

// SignupOptions - настройки мастера из конфигурации
type SignupOptions struct {
	LoginDomain  string
	MaxProofSize int64
	AllowedTypes []string
	SignedURLTTL time.Duration
}

type SignupServiceImpl struct {
	userRepo         repositories.UserRepository
	statusRepo       repositories.UserStatusRepository
	progressRepo     repositories.SignupProgressRepository
	countryRepo      repositories.CountryRepository
	verificationRepo repositories.VerificationRepository
	authService      AuthService
	storage          storage.Storage
	guard            *dedup.Guard
	events           EventEmitter
	notifier         notify.Notifier
	opts             SignupOptions
}

func NewSignupService(
	userRepo repositories.UserRepository,
	statusRepo repositories.UserStatusRepository,
	progressRepo repositories.SignupProgressRepository,
	countryRepo repositories.CountryRepository,
	verificationRepo repositories.VerificationRepository,
	authService AuthService,
	store storage.Storage,
	guard *dedup.Guard,
	emitter EventEmitter,
	notifier notify.Notifier,
	opts SignupOptions,
) SignupService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if opts.MaxProofSize <= 0 {
		opts.MaxProofSize = 10 << 20
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	return &SignupServiceImpl{
		userRepo:         userRepo,
		statusRepo:       statusRepo,
		progressRepo:     progressRepo,
		countryRepo:      countryRepo,
		verificationRepo: verificationRepo,
		authService:      authService,
		storage:          store,
		guard:            guard,
		events:           emitter,
		notifier:         notifier,
		opts:             opts,
	}
}

// ============================================================================
// Registration
// ============================================================================

// Register создает пользователя, статус (approved=false, banned=false) и прогресс
// на шаге выбора страны, затем открывает сессию для следующих шагов.
func (s *SignupServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !auth.ValidUsername(username) {
		return nil, apperrors.ValidationError(map[string]string{
			"username": fmt.Sprintf("Must be at least %d characters: letters, digits, '.', '_' or '-'", auth.MinUsernameLength),
		})
	}

	resp, err := runExclusive(ctx, s.guard, "signup-register-"+username, func(ctx context.Context) (*dto.RegisterResponse, error) {
		return s.register(ctx, db, username, req.Password)
	})
	metrics.SignupsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return resp, err
}

func (s *SignupServiceImpl) register(ctx context.Context, db *gorm.DB, username, password string) (*dto.RegisterResponse, error) {
	identifier := auth.LoginIdentifier(username, s.opts.LoginDomain)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.authService.SignUp(tx, identifier, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.statusRepo.Create(tx, &models.UserStatus{UserID: user.ID, Approved: false, Banned: false}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	progress := &models.SignupProgress{UserID: user.ID, Step: string(signup.StepCountrySelection)}
	if err := s.progressRepo.Create(tx, progress); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	session, err := s.authService.IssueSession(db, user)
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "username", user.Username)
	emit(ctx, s.events, events.TypeUserRegistered, events.TopicModeration, user.ID, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Step:    signup.StepCountrySelection,
		Session: session,
	}, nil
}

// ============================================================================
// Country selection
// ============================================================================

// ListCountries - только активные страны, по имени
func (s *SignupServiceImpl) ListCountries(db *gorm.DB) ([]dto.CountryOption, error) {
	countries, err := s.countryRepo.ListActive(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	options := make([]dto.CountryOption, 0, len(countries))
	for _, c := range countries {
		options = append(options, dto.CountryOption{
			ID:              c.ID,
			Name:            c.Name,
			Currency:        c.Currency,
			SignupPrice:     c.SignupPrice,
			FormattedAmount: currency.Format(c.SignupPrice, c.Currency),
		})
	}
	return options, nil
}

func (s *SignupServiceImpl) SelectCountry(db *gorm.DB, userID string, req *dto.SelectCountryRequest) (*dto.SignupState, error) {
	progress, err := s.loadProgress(db, userID)
	if err != nil {
		return nil, err
	}

	current := signup.Step(progress.Step)
	next, err := signup.Transition(current, signup.StepCountrySelection)
	if err != nil {
		return nil, stepError(err)
	}

	country, err := s.countryRepo.FindByID(db, req.CountryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCountryNotFound) {
			return nil, apperrors.ErrCountryNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if !country.Active {
		return nil, apperrors.ErrCountryInactive
	}

	if err := s.progressRepo.AdvanceWithCountry(db, userID, string(current), string(next), country.ID); err != nil {
		return nil, advanceError(err)
	}

	return &dto.SignupState{Step: next, CountryID: &country.ID}, nil
}

// ============================================================================
// Payment instructions
// ============================================================================

// Instructions - реквизиты выбранной страны и код платежа
func (s *SignupServiceImpl) Instructions(db *gorm.DB, userID string) (*dto.PaymentInstructions, error) {
	progress, err := s.loadProgress(db, userID)
	if err != nil {
		return nil, err
	}

	switch signup.Step(progress.Step) {
	case signup.StepPaymentInstructions, signup.StepProofOfPayment, signup.StepConfirmation:
	default:
		return nil, apperrors.ErrInvalidSignupStep
	}

	country := progress.Country
	if country == nil {
		if progress.CountryID == nil {
			return nil, apperrors.ErrCountryNotChosen
		}
		if country, err = s.countryRepo.FindByID(db, *progress.CountryID); err != nil {
			if errors.Is(err, repositories.ErrCountryNotFound) {
				return nil, apperrors.ErrCountryNotFound
			}
			return nil, apperrors.InternalError(err)
		}
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	return &dto.PaymentInstructions{
		Country:         country.Name,
		PaymentPhone:    country.PaymentPhone,
		PaymentName:     country.PaymentName,
		SignupPrice:     country.SignupPrice,
		Currency:        country.Currency,
		FormattedAmount: currency.Format(country.SignupPrice, country.Currency),
		Reference:       auth.ReferenceToken(user.Email),
	}, nil
}

// MarkPaid - пользователь сообщает, что оплатил
func (s *SignupServiceImpl) MarkPaid(db *gorm.DB, userID string) (*dto.SignupState, error) {
	progress, err := s.loadProgress(db, userID)
	if err != nil {
		return nil, err
	}

	current := signup.Step(progress.Step)
	next, err := signup.Transition(current, signup.StepPaymentInstructions)
	if err != nil {
		return nil, stepError(err)
	}

	if err := s.progressRepo.Advance(db, userID, string(current), string(next)); err != nil {
		return nil, advanceError(err)
	}
	return &dto.SignupState{Step: next, CountryID: progress.CountryID}, nil
}

// ============================================================================
// Proof of payment
// ============================================================================

// SubmitProof заменяет прошлые пруфы пользователя новым файлом, создает pending
// проверку, переводит мастер на подтверждение и завершает сессию.
func (s *SignupServiceImpl) SubmitProof(ctx context.Context, db *gorm.DB, userID string, upload *dto.ProofUpload) (*dto.ProofResponse, error) {
	resp, err := runExclusive(ctx, s.guard, "signup-proof-"+userID, func(ctx context.Context) (*dto.ProofResponse, error) {
		return s.submitProof(ctx, db, userID, upload)
	})
	metrics.ProofsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return resp, err
}

func (s *SignupServiceImpl) submitProof(ctx context.Context, db *gorm.DB, userID string, upload *dto.ProofUpload) (*dto.ProofResponse, error) {
	ext, contentType, err := s.checkProof(upload)
	if err != nil {
		return nil, err
	}

	progress, err := s.loadProgress(db, userID)
	if err != nil {
		return nil, err
	}
	current := signup.Step(progress.Step)
	if err := s.checkCanSubmit(db, userID, current); err != nil {
		return nil, err
	}

	prefix := storage.Join(storage.BucketPaymentProofs, userID) + "/"
	removed, err := storage.RemovePrefix(ctx, s.storage, prefix)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to remove previous proofs", err, "user_id", userID)
		return nil, apperrors.ErrStorageFailure.WithError(err)
	}

	path := storage.Join(storage.BucketPaymentProofs, userID, fmt.Sprintf("%d%s", time.Now().UnixNano(), ext))
	if err := s.storage.Save(ctx, path, bytes.NewReader(upload.Data), contentType); err != nil {
		logger.CtxWithError(ctx, "Failed to save proof", err, "user_id", userID, "path", path)
		return nil, apperrors.ErrStorageFailure.WithError(err)
	}

	url, err := storage.ResolveURL(ctx, s.storage, path, s.opts.SignedURLTTL)
	if err != nil {
		s.discard(ctx, path)
		return nil, apperrors.ErrStorageFailure.WithError(err)
	}

	verification := &models.PaymentVerification{
		UserID:         userID,
		ProofImagePath: path,
		ProofImageURL:  url,
		Status:         models.VerificationStatusPending,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.verificationRepo.Create(tx, verification); err != nil {
			return err
		}
		if current == signup.StepProofOfPayment {
			return s.progressRepo.Advance(tx, userID, string(current), string(signup.StepConfirmation))
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, path)
		return nil, advanceError(err)
	}

	logger.CtxInfo(ctx, "Payment proof submitted",
		"user_id", userID,
		"verification_id", verification.ID,
		"replaced", removed,
	)

	if err := s.authService.SignOut(ctx, db, userID); err != nil {
		logger.CtxWithError(ctx, "Sign out after proof failed", err, "user_id", userID)
	}

	emit(ctx, s.events, events.TypeVerificationSubmitted, events.TopicModeration, verification.ID, map[string]any{
		"verification_id": verification.ID,
		"user_id":         userID,
	})
	s.notifyAdmins(ctx, db, userID, progress.Country, url)

	return &dto.ProofResponse{
		VerificationID: verification.ID,
		Status:         verification.Status,
		Step:           signup.StepConfirmation,
		Redirect:       LoginRedirect,
	}, nil
}

// checkCanSubmit: обычный путь - шаг proof_of_payment; повторная отправка
// разрешена на подтверждении, только если последняя проверка отклонена.
func (s *SignupServiceImpl) checkCanSubmit(db *gorm.DB, userID string, current signup.Step) error {
	switch current {
	case signup.StepProofOfPayment:
		return nil
	case signup.StepConfirmation:
	default:
		return apperrors.ErrInvalidSignupStep
	}

	latest, err := s.verificationRepo.FindLatestByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrVerificationNotFound) {
			return nil
		}
		return apperrors.InternalError(err)
	}
	switch latest.Status {
	case models.VerificationStatusPending:
		return apperrors.ErrVerificationPending
	case models.VerificationStatusDeclined:
		return nil
	default:
		return apperrors.ErrInvalidSignupStep
	}
}

// checkProof проверяет размер и реальный тип файла
func (s *SignupServiceImpl) checkProof(upload *dto.ProofUpload) (ext, contentType string, err error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", "", apperrors.ErrFileRequired
	}
	if int64(len(upload.Data)) > s.opts.MaxProofSize {
		return "", "", apperrors.ErrFileTooLarge
	}

	contentType = http.DetectContentType(upload.Data)
	allowed := false
	for _, t := range s.opts.AllowedTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", "", apperrors.ErrInvalidFileType
	}

	ext = extensionFor(contentType, upload.FileName)
	return ext, contentType, nil
}

func extensionFor(contentType, fileName string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" {
		return ext
	}
	return ".bin"
}

func (s *SignupServiceImpl) discard(ctx context.Context, path string) {
	if err := s.storage.Delete(ctx, path); err != nil {
		logger.CtxWarn(ctx, "Failed to discard proof object", "path", path, "error", err)
	}
}

func (s *SignupServiceImpl) notifyAdmins(ctx context.Context, db *gorm.DB, userID string, country *models.Country, proofURL string) {
	data := map[string]interface{}{
		"UserID":   userID,
		"ProofURL": proofURL,
	}
	if user, err := s.userRepo.FindByID(db, userID); err == nil {
		data["Username"] = user.Username
		data["Reference"] = auth.ReferenceToken(user.Email)
	}
	text := fmt.Sprintf("New payment proof from %v", data["Username"])
	if country != nil {
		data["Country"] = country.Name
		data["Amount"] = currency.Format(country.SignupPrice, country.Currency)
		text += fmt.Sprintf(" (%s, %s)", country.Name, data["Amount"])
	}

	notify.Async(ctx, s.notifier, notify.Notification{
		Subject:  "New payment proof",
		Text:     text,
		Template: email.TemplateVerificationSubmitted,
		Data:     data,
	})
}

// ============================================================================
// State
// ============================================================================

// State - текущий шаг; на подтверждении добавляется статус последней проверки
func (s *SignupServiceImpl) State(db *gorm.DB, userID string) (*dto.SignupState, error) {
	progress, err := s.loadProgress(db, userID)
	if err != nil {
		return nil, err
	}

	state := &dto.SignupState{Step: signup.Step(progress.Step), CountryID: progress.CountryID}
	if state.Step != signup.StepConfirmation {
		return state, nil
	}

	latest, err := s.verificationRepo.FindLatestByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrVerificationNotFound) {
			return state, nil
		}
		return nil, apperrors.InternalError(err)
	}
	status := latest.Status
	state.VerificationStatus = &status
	state.CanResubmit = status == models.VerificationStatusDeclined
	return state, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *SignupServiceImpl) loadProgress(db *gorm.DB, userID string) (*models.SignupProgress, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	progress, err := s.progressRepo.FindByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProgressNotFound) {
			return nil, apperrors.ErrNotFound(err, "signup", "Signup progress not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return progress, nil
}

func stepError(err error) error {
	var stepErr *signup.StepError
	if errors.As(err, &stepErr) {
		return apperrors.ErrInvalidSignupStep.WithDetails(map[string]string{
			"current":  string(stepErr.Current),
			"expected": string(stepErr.Expected),
		})
	}
	return apperrors.InternalError(err)
}

func advanceError(err error) error {
	if errors.Is(err, repositories.ErrStepConflict) {
		return apperrors.ErrInvalidSignupStep
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.InternalError(err)
}
