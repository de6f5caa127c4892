package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"directory_backend/internal/auth"
	"directory_backend/internal/events"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/signup"
	"directory_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	// SignUp создает учетную запись по синтетическому логину
	SignUp(db *gorm.DB, identifier, username, password string) (*models.User, error)
	SignIn(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	SignOut(ctx context.Context, db *gorm.DB, userID string) error
	Refresh(db *gorm.DB, refreshToken string) (*dto.AuthResponse, error)
	GetSession(db *gorm.DB, userID string) (*dto.SessionInfo, error)
	IssueSession(db *gorm.DB, user *models.User) (*dto.AuthResponse, error)
	IsAdmin(db *gorm.DB, userID string) (bool, error)
}

type AuthServiceImpl struct {
	userRepo         repositories.UserRepository
	statusRepo       repositories.UserStatusRepository
	roleRepo         repositories.RoleRepository
	progressRepo     repositories.SignupProgressRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	tokens           *auth.TokenManager
	refreshTTL       time.Duration
	loginDomain      string
	events           EventEmitter
}

func NewAuthService(
	userRepo repositories.UserRepository,
	statusRepo repositories.UserStatusRepository,
	roleRepo repositories.RoleRepository,
	progressRepo repositories.SignupProgressRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	tokens *auth.TokenManager,
	refreshTTL time.Duration,
	loginDomain string,
	emitter EventEmitter,
) AuthService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &AuthServiceImpl{
		userRepo:         userRepo,
		statusRepo:       statusRepo,
		roleRepo:         roleRepo,
		progressRepo:     progressRepo,
		refreshTokenRepo: refreshTokenRepo,
		tokens:           tokens,
		refreshTTL:       refreshTTL,
		loginDomain:      loginDomain,
		events:           emitter,
	}
}

// SignUp - создание пользователя; дубликат логина -> 409
func (s *AuthServiceImpl) SignUp(db *gorm.DB, identifier, username, password string) (*models.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(identifier),
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

// SignIn - вход по имени пользователя или полному логину
func (s *AuthServiceImpl) SignIn(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identifier := req.Username
	if !strings.Contains(identifier, "@") {
		identifier = auth.LoginIdentifier(identifier, s.loginDomain)
	}

	user, err := s.userRepo.FindByEmail(db, strings.ToLower(strings.TrimSpace(identifier)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.checkNotBanned(db, user.ID); err != nil {
		return nil, err
	}

	resp, err := s.IssueSession(db, user)
	if err != nil {
		return nil, err
	}

	emit(ctx, s.events, events.TypeSessionChanged, events.SessionTopic(user.ID), user.ID, map[string]any{"signed_in": true})
	return resp, nil
}

// SignOut отзывает все refresh токены пользователя
func (s *AuthServiceImpl) SignOut(ctx context.Context, db *gorm.DB, userID string) error {
	if err := s.refreshTokenRepo.DeleteByUserID(db, userID); err != nil {
		return apperrors.InternalError(err)
	}
	emit(ctx, s.events, events.TypeSessionChanged, events.SessionTopic(userID), userID, map[string]any{"signed_in": false})
	return nil
}

// Refresh - ротация refresh токена
func (s *AuthServiceImpl) Refresh(db *gorm.DB, refreshToken string) (*dto.AuthResponse, error) {
	token, err := s.refreshTokenRepo.FindByToken(db, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	if time.Now().After(token.ExpiresAt) {
		_ = s.refreshTokenRepo.DeleteByToken(db, refreshToken)
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(db, token.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	if err := s.checkNotBanned(db, user.ID); err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.DeleteByToken(db, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			// уже использован параллельным запросом
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	return s.IssueSession(db, user)
}

// GetSession - данные для гейта: статус, админ, шаг регистрации
func (s *AuthServiceImpl) GetSession(db *gorm.DB, userID string) (*dto.SessionInfo, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}

	info := &dto.SessionInfo{User: toUserDTO(user)}
	if user.Status != nil {
		info.Status = dto.UserStatusDTO{Approved: user.Status.Approved, Banned: user.Status.Banned}
	}

	if info.IsAdmin, err = s.IsAdmin(db, userID); err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.FindByUserID(db, userID)
	switch {
	case err == nil:
		info.SignupStep = signup.Step(progress.Step)
	case errors.Is(err, repositories.ErrProgressNotFound):
		// админ из конфигурации регистрацию не проходил
	default:
		return nil, apperrors.InternalError(err)
	}

	return info, nil
}

// IssueSession выпускает access + refresh токены
func (s *AuthServiceImpl) IssueSession(db *gorm.DB, user *models.User) (*dto.AuthResponse, error) {
	accessToken, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refresh := &models.RefreshToken{
		UserID:    user.ID,
		Token:     auth.GenerateRefreshToken(),
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.refreshTokenRepo.Create(db, refresh); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
		User:         toUserDTO(user),
	}, nil
}

// IsAdmin - проверка capability "admin" в таблице ролей
func (s *AuthServiceImpl) IsAdmin(db *gorm.DB, userID string) (bool, error) {
	ok, err := s.roleRepo.HasCapability(db, userID, models.CapabilityAdmin)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	return ok, nil
}

func (s *AuthServiceImpl) checkNotBanned(db *gorm.DB, userID string) error {
	status, err := s.statusRepo.FindByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserStatusNotFound) {
			return nil
		}
		return apperrors.InternalError(err)
	}
	if status.Banned {
		return apperrors.ErrUserBanned
	}
	return nil
}

func toUserDTO(user *models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
