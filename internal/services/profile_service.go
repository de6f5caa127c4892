package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"directory_backend/internal/events"
	"directory_backend/internal/imageprocessor"
	"directory_backend/internal/logger"
	"directory_backend/internal/models"
	"directory_backend/internal/repositories"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/storage"
	"directory_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// MaxProfileImages - ограничение галереи
const MaxProfileImages = 12

// =======================
// 1. ИНТЕРФЕЙС
// =======================
type ProfileService interface {
	// Публичный каталог
	List(ctx context.Context, db *gorm.DB, query *dto.ProfileListQuery, viewer *dto.Viewer) (*dto.PaginatedResponse, error)
	Get(ctx context.Context, db *gorm.DB, id string, viewer *dto.Viewer) (*dto.ProfileResponse, error)
	ResolveViewer(db *gorm.DB, userID string) *dto.Viewer

	// Админка
	Create(ctx context.Context, db *gorm.DB, adminID string, req *dto.ProfileRequest) (*dto.ProfileResponse, error)
	Update(ctx context.Context, db *gorm.DB, adminID, id string, req *dto.ProfileRequest) (*dto.ProfileResponse, error)
	Delete(ctx context.Context, db *gorm.DB, adminID, id string) error
	AddImages(ctx context.Context, db *gorm.DB, id string, uploads []dto.ImageUpload) (*dto.ProfileResponse, error)
	RemoveImage(ctx context.Context, db *gorm.DB, id string, index int) (*dto.ProfileResponse, error)
	SetFlag(ctx context.Context, db *gorm.DB, id, flag string, value bool) (*dto.ProfileResponse, error)
}

// =======================
// 2. РЕАЛИЗАЦИЯ
// =======================
type ProfileServiceImpl struct {
	profileRepo  repositories.ProfileRepository
	statusRepo   repositories.UserStatusRepository
	roleRepo     repositories.RoleRepository
	storage      storage.Storage
	processor    *imageprocessor.Processor
	maxImageSize int64
	events       EventEmitter
	audit        auditor
}

func NewProfileService(
	profileRepo repositories.ProfileRepository,
	statusRepo repositories.UserStatusRepository,
	roleRepo repositories.RoleRepository,
	moderationRepo repositories.ModerationRepository,
	store storage.Storage,
	processor *imageprocessor.Processor,
	maxImageSize int64,
	emitter EventEmitter,
) ProfileService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if processor == nil {
		processor = imageprocessor.NewProcessor(0, 0)
	}
	if maxImageSize <= 0 {
		maxImageSize = 10 << 20
	}
	return &ProfileServiceImpl{
		profileRepo:  profileRepo,
		statusRepo:   statusRepo,
		roleRepo:     roleRepo,
		storage:      store,
		processor:    processor,
		maxImageSize: maxImageSize,
		events:       emitter,
		audit:        auditor{repo: moderationRepo},
	}
}

// ==========================
// Каталог
// ==========================

func (s *ProfileServiceImpl) List(ctx context.Context, db *gorm.DB, query *dto.ProfileListQuery, viewer *dto.Viewer) (*dto.PaginatedResponse, error) {
	filter := repositories.ProfileFilter{
		City:       strings.TrimSpace(query.City),
		Country:    strings.TrimSpace(query.Country),
		Verified:   query.Verified,
		Premium:    query.Premium,
		Search:     strings.TrimSpace(query.Search),
		Pagination: repositories.Pagination{Page: query.Page, PageSize: query.PageSize},
	}

	profiles, total, err := s.profileRepo.List(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, s.toResponse(ctx, &profiles[i], viewer))
	}
	return dto.NewPaginatedResponse(items, total, query.Page, query.PageSize), nil
}

func (s *ProfileServiceImpl) Get(ctx context.Context, db *gorm.DB, id string, viewer *dto.Viewer) (*dto.ProfileResponse, error) {
	profile, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, profile, viewer), nil
}

// ResolveViewer собирает права зрителя; ошибки чтения трактуются как аноним
func (s *ProfileServiceImpl) ResolveViewer(db *gorm.DB, userID string) *dto.Viewer {
	if userID == "" {
		return nil
	}
	viewer := &dto.Viewer{UserID: userID}
	if status, err := s.statusRepo.FindByUserID(db, userID); err == nil {
		viewer.Approved = status.Approved
		viewer.Banned = status.Banned
	}
	if ok, err := s.roleRepo.HasCapability(db, userID, models.CapabilityAdmin); err == nil {
		viewer.IsAdmin = ok
	}
	return viewer
}

// ==========================
// Админка
// ==========================

func (s *ProfileServiceImpl) Create(ctx context.Context, db *gorm.DB, adminID string, req *dto.ProfileRequest) (*dto.ProfileResponse, error) {
	profile := &models.Profile{}
	applyProfileRequest(profile, req)

	var err error
	if profile.Slug, err = s.uniqueSlug(db, profile.Name); err != nil {
		return nil, err
	}

	err = s.profileRepo.Create(db, profile)
	if errors.Is(err, repositories.ErrSlugTaken) {
		// гонка за slug: одна повторная попытка с суффиксом
		profile.Slug = withSuffix(profile.Slug)
		err = s.profileRepo.Create(db, profile)
	}
	s.audit.record(ctx, db, adminID, ActionProfileCreate, TargetProfile, profile.ID, map[string]string{"slug": profile.Slug}, err)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := s.toResponse(ctx, profile, adminViewer(adminID))
	s.publishChanged(ctx, resp)
	return resp, nil
}

func (s *ProfileServiceImpl) Update(ctx context.Context, db *gorm.DB, adminID, id string, req *dto.ProfileRequest) (*dto.ProfileResponse, error) {
	profile, err := s.find(db, id)
	if err != nil {
		return nil, err
	}

	applyProfileRequest(profile, req)
	err = s.profileRepo.Update(db, profile)
	s.audit.record(ctx, db, adminID, ActionProfileUpdate, TargetProfile, id, nil, err)
	if err != nil {
		return nil, handleProfileError(err)
	}

	return s.reload(ctx, db, id)
}

// Delete удаляет карточку и все ее изображения из хранилища
func (s *ProfileServiceImpl) Delete(ctx context.Context, db *gorm.DB, adminID, id string) error {
	profile, err := s.find(db, id)
	if err != nil {
		return err
	}

	err = s.profileRepo.Delete(db, id)
	s.audit.record(ctx, db, adminID, ActionProfileDelete, TargetProfile, id, map[string]string{"slug": profile.Slug}, err)
	if err != nil {
		return handleProfileError(err)
	}

	if err := storage.RemoveAll(ctx, s.storage, profile.Images); err != nil {
		logger.CtxWithError(ctx, "Failed to remove profile images", err, "profile_id", id)
	}
	if _, err := storage.RemovePrefix(ctx, s.storage, profileImagePrefix(id)); err != nil {
		logger.CtxWithError(ctx, "Failed to clean profile image prefix", err, "profile_id", id)
	}

	emit(ctx, s.events, events.TypeProfileDeleted, events.ProfileTopic(id), id, map[string]string{"id": id})
	return nil
}

// AddImages нормализует изображения (JPEG, ограничение по стороне) и добавляет в конец галереи
func (s *ProfileServiceImpl) AddImages(ctx context.Context, db *gorm.DB, id string, uploads []dto.ImageUpload) (*dto.ProfileResponse, error) {
	if len(uploads) == 0 {
		return nil, apperrors.ErrFileRequired
	}

	profile, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	if len(profile.Images)+len(uploads) > MaxProfileImages {
		return nil, apperrors.New(apperrors.CodeLimitExceeded, "profile",
			fmt.Sprintf("A profile can have at most %d images", MaxProfileImages), http.StatusBadRequest)
	}

	saved := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if int64(len(up.Data)) > s.maxImageSize {
			_ = storage.RemoveAll(ctx, s.storage, saved)
			return nil, apperrors.ErrFileTooLarge
		}

		result, err := s.processor.Normalize(bytes.NewReader(up.Data))
		if err != nil {
			_ = storage.RemoveAll(ctx, s.storage, saved)
			if errors.Is(err, imageprocessor.ErrNotAnImage) {
				return nil, apperrors.ErrInvalidFileType
			}
			return nil, apperrors.InternalError(err)
		}

		path := storage.Join(profileImagePrefix(id), uuid.NewString()+result.Ext)
		if err := s.storage.Save(ctx, path, bytes.NewReader(result.Data), result.ContentType); err != nil {
			_ = storage.RemoveAll(ctx, s.storage, saved)
			return nil, apperrors.ErrStorageFailure.WithError(err)
		}
		saved = append(saved, path)
	}

	images := append(append([]string{}, profile.Images...), saved...)
	if err := s.profileRepo.SetImages(db, id, images); err != nil {
		_ = storage.RemoveAll(ctx, s.storage, saved)
		return nil, handleProfileError(err)
	}

	return s.reload(ctx, db, id)
}

// RemoveImage удаляет изображение по позиции в галерее
func (s *ProfileServiceImpl) RemoveImage(ctx context.Context, db *gorm.DB, id string, index int) (*dto.ProfileResponse, error) {
	profile, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(profile.Images) {
		return nil, apperrors.ErrInvalidOperation("profile", "Image index out of range")
	}

	removed := profile.Images[index]
	images := append(append([]string{}, profile.Images[:index]...), profile.Images[index+1:]...)
	if err := s.profileRepo.SetImages(db, id, images); err != nil {
		return nil, handleProfileError(err)
	}
	if err := s.storage.Delete(ctx, removed); err != nil {
		logger.CtxWarn(ctx, "Failed to delete profile image", "path", removed, "error", err)
	}

	return s.reload(ctx, db, id)
}

// SetFlag переключает is_verified / is_premium
func (s *ProfileServiceImpl) SetFlag(ctx context.Context, db *gorm.DB, id, flag string, value bool) (*dto.ProfileResponse, error) {
	if err := s.profileRepo.SetFlag(db, id, flag, value); err != nil {
		return nil, handleProfileError(err)
	}
	return s.reload(ctx, db, id)
}

// ==========================
// Вспомогательные
// ==========================

func (s *ProfileServiceImpl) find(db *gorm.DB, id string) (*models.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrProfileNotFound
	}
	profile, err := s.profileRepo.FindByID(db, id)
	if err != nil {
		return nil, handleProfileError(err)
	}
	return profile, nil
}

// reload перечитывает карточку после записи и публикует изменение
func (s *ProfileServiceImpl) reload(ctx context.Context, db *gorm.DB, id string) (*dto.ProfileResponse, error) {
	profile, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, profile, &dto.Viewer{IsAdmin: true})
	s.publishChanged(ctx, resp)
	return resp, nil
}

func (s *ProfileServiceImpl) publishChanged(ctx context.Context, resp *dto.ProfileResponse) {
	// в realtime уходит публичное представление, без закрытых контактов
	public := *resp
	if public.IsPremium {
		public.Phone = nil
		public.ContactLocked = true
	}
	emit(ctx, s.events, events.TypeProfileChanged, events.ProfileTopic(resp.ID), resp.ID, public)
}

func (s *ProfileServiceImpl) uniqueSlug(db *gorm.DB, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "profile"
	}
	exists, err := s.profileRepo.SlugExists(db, base)
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	if !exists {
		return base, nil
	}
	return withSuffix(base), nil
}

func (s *ProfileServiceImpl) toResponse(ctx context.Context, p *models.Profile, viewer *dto.Viewer) *dto.ProfileResponse {
	resp := &dto.ProfileResponse{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Age:          p.Age,
		Location:     p.Location,
		City:         p.City,
		Country:      p.Country,
		PricePerHour: p.PricePerHour,
		Phone:        p.Phone,
		VideoURL:     p.VideoURL,
		Images:       make([]string, 0, len(p.Images)),
		IsVerified:   p.IsVerified,
		IsPremium:    p.IsPremium,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}

	if p.IsPremium && !CanSeeContacts(viewer) {
		resp.Phone = nil
		resp.ContactLocked = true
	}

	for _, path := range p.Images {
		url, err := s.storage.GetURL(ctx, path)
		if err != nil {
			logger.CtxWarn(ctx, "Failed to build image URL", "path", path, "error", err)
			continue
		}
		resp.Images = append(resp.Images, url)
	}
	return resp
}

// CanSeeContacts - контакты премиум-карточек видят одобренные незабаненные пользователи и админы
func CanSeeContacts(viewer *dto.Viewer) bool {
	if viewer == nil {
		return false
	}
	if viewer.IsAdmin {
		return true
	}
	return viewer.UserID != "" && viewer.Approved && !viewer.Banned
}

func applyProfileRequest(p *models.Profile, req *dto.ProfileRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Age = req.Age
	p.Location = strings.TrimSpace(req.Location)
	p.City = strings.TrimSpace(req.City)
	p.Country = strings.TrimSpace(req.Country)
	p.PricePerHour = req.PricePerHour
	p.Phone = trimmedOrNil(req.Phone)
	p.VideoURL = trimmedOrNil(req.VideoURL)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func withSuffix(base string) string {
	return base + "-" + uuid.NewString()[:6]
}

func adminViewer(adminID string) *dto.Viewer {
	return &dto.Viewer{UserID: adminID, IsAdmin: true}
}

func profileImagePrefix(profileID string) string {
	return storage.Join(storage.BucketProfileImages, profileID) + "/"
}

func handleProfileError(err error) error {
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return apperrors.ErrProfileNotFound
	}
	return apperrors.InternalError(err)
}
