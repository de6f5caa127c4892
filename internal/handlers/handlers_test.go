package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"directory_backend/internal/middleware"
	"directory_backend/internal/models"
	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"
	"directory_backend/internal/signup"
	"directory_backend/internal/validator"
	"directory_backend/pkg/apperrors"
	"directory_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testUserHeader  = "X-Test-User"
	testAdminHeader = "X-Test-Admin"
)

// testGuards заменяют JWT и проверку ролей заголовками
func testGuards() Guards {
	return Guards{
		Auth: func(c *gin.Context) {
			id := c.GetHeader(testUserHeader)
			if id == "" {
				apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
				return
			}
			c.Set(middleware.UserIDKey, id)
			c.Next()
		},
		Admin: func(c *gin.Context) {
			if c.GetHeader(testAdminHeader) != "true" {
				apperrors.HandleError(c, apperrors.ErrInsufficientRights)
				return
			}
			c.Next()
		},
	}
}

func newTestRouter(register func(api *gin.RouterGroup, guards Guards)) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(string(contextkeys.DBContextKey), &gorm.DB{})
		c.Next()
	})
	register(r.Group("/api/v1"), testGuards())
	return r
}

func newBase(maxUpload int64) *BaseHandler {
	return NewBaseHandler(validator.New(), maxUpload)
}

func doJSON(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

// ============================================
// Заглушки сервисов
// ============================================

type stubSignupService struct {
	services.SignupService
	registered *dto.RegisterRequest
	proof      *dto.ProofUpload
	proofErr   error
}

func (s *stubSignupService) Register(_ context.Context, _ *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	s.registered = req
	return &dto.RegisterResponse{UserID: "user-1", Step: signup.StepCountrySelection}, nil
}

func (s *stubSignupService) SubmitProof(_ context.Context, _ *gorm.DB, _ string, upload *dto.ProofUpload) (*dto.ProofResponse, error) {
	if s.proofErr != nil {
		return nil, s.proofErr
	}
	s.proof = upload
	return &dto.ProofResponse{VerificationID: "v-1", Status: models.VerificationStatusPending, Step: signup.StepConfirmation, Redirect: "/login"}, nil
}

type stubModerationService struct {
	services.ModerationService
	approveErr error
	banned     *bool
	status     models.SiteStatus
}

func (s *stubModerationService) Approve(_ context.Context, _ *gorm.DB, _, id string) (*dto.VerificationItem, error) {
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &dto.VerificationItem{ID: id, Status: models.VerificationStatusApproved}, nil
}

func (s *stubModerationService) SetBanned(_ context.Context, _ *gorm.DB, _, _ string, banned bool) (*dto.UserStatusDTO, error) {
	s.banned = &banned
	return &dto.UserStatusDTO{Banned: banned}, nil
}

func (s *stubModerationService) GetSiteStatus() models.SiteStatus {
	return s.status
}

type stubProfileService struct {
	services.ProfileService
	viewerFor string
	removed   int
}

func (s *stubProfileService) ResolveViewer(_ *gorm.DB, userID string) *dto.Viewer {
	s.viewerFor = userID
	return &dto.Viewer{UserID: userID}
}

func (s *stubProfileService) Get(_ context.Context, _ *gorm.DB, id string, _ *dto.Viewer) (*dto.ProfileResponse, error) {
	if id != "p-1" {
		return nil, apperrors.ErrProfileNotFound
	}
	return &dto.ProfileResponse{ID: id, ContactLocked: true}, nil
}

func (s *stubProfileService) RemoveImage(_ context.Context, _ *gorm.DB, id string, index int) (*dto.ProfileResponse, error) {
	s.removed = index
	return &dto.ProfileResponse{ID: id}, nil
}

// ============================================
// Signup
// ============================================

func TestSignupHandler_Register(t *testing.T) {
	svc := &stubSignupService{}
	r := newTestRouter(NewSignupHandler(newBase(0), svc).RegisterRoutes)

	w := doJSON(r, http.MethodPost, "/api/v1/signup/register", `{"username":"dave","password":"secret123"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.registered)
	assert.Equal(t, "dave", svc.registered.Username)

	w = doJSON(r, http.MethodPost, "/api/v1/signup/register", `{"username":"ab","password":"secret123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.CodeValidationFailed), errorCode(t, w))
}

func TestSignupHandler_StepsRequireSession(t *testing.T) {
	r := newTestRouter(NewSignupHandler(newBase(0), &stubSignupService{}).RegisterRoutes)

	w := doJSON(r, http.MethodGet, "/api/v1/signup/instructions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSignupHandler_SubmitProof(t *testing.T) {
	svc := &stubSignupService{}
	r := newTestRouter(NewSignupHandler(newBase(64), svc).RegisterRoutes)

	send := func(field string, data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, field, "proof.png", data)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/signup/proof", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(testUserHeader, "user-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send("file", []byte("\x89PNG\r\n\x1a\nsmall"))
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.proof)
	assert.Equal(t, "proof.png", svc.proof.FileName)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	w = send("", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send("file", bytes.Repeat([]byte{1}, 65))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	svc.proofErr = apperrors.ErrVerificationPending
	w = send("file", []byte("\x89PNG\r\n\x1a\nsmall"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(apperrors.CodeVerificationPending), errorCode(t, w))
}

// ============================================
// Moderation
// ============================================

func newModerationRouter(svc *stubModerationService) *gin.Engine {
	return newTestRouter(NewModerationHandler(newBase(0), svc, nil, nil).RegisterRoutes)
}

func TestModerationHandler_AdminOnly(t *testing.T) {
	r := newModerationRouter(&stubModerationService{})

	w := doJSON(r, http.MethodPost, "/api/v1/admin/verifications/v-1/approve", "", map[string]string{testUserHeader: "user-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestModerationHandler_Approve(t *testing.T) {
	svc := &stubModerationService{}
	r := newModerationRouter(svc)
	admin := map[string]string{testUserHeader: "admin-1", testAdminHeader: "true"}

	w := doJSON(r, http.MethodPost, "/api/v1/admin/verifications/v-1/approve", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	svc.approveErr = apperrors.ErrVerificationNotPending
	w = doJSON(r, http.MethodPost, "/api/v1/admin/verifications/v-1/approve", "", admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(apperrors.CodeVerificationNotPending), errorCode(t, w))

	svc.approveErr = apperrors.ErrApprovalFailed
	w = doJSON(r, http.MethodPost, "/api/v1/admin/verifications/v-1/approve", "", admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestModerationHandler_Ban(t *testing.T) {
	svc := &stubModerationService{}
	r := newModerationRouter(svc)
	admin := map[string]string{testUserHeader: "admin-1", testAdminHeader: "true"}

	w := doJSON(r, http.MethodPut, "/api/v1/admin/users/user-9/ban", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.banned)

	w = doJSON(r, http.MethodPut, "/api/v1/admin/users/user-9/ban", `{"banned":false}`, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.banned)
	assert.False(t, *svc.banned)
}

func TestModerationHandler_SiteStatusIsPublic(t *testing.T) {
	svc := &stubModerationService{status: models.SiteStatus{ID: models.GlobalSiteStatusID, IsOnline: false, MaintenanceMessage: "Back soon"}}
	r := newModerationRouter(svc)

	w := doJSON(r, http.MethodGet, "/api/v1/site-status", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Back soon")
}

// ============================================
// Profiles
// ============================================

func TestProfileHandler_GetResolvesViewer(t *testing.T) {
	svc := &stubProfileService{}
	r := newTestRouter(func(api *gin.RouterGroup, guards Guards) {
		api.Use(func(c *gin.Context) {
			if id := c.GetHeader(testUserHeader); id != "" {
				c.Set(middleware.UserIDKey, id)
			}
			c.Next()
		})
		NewProfileHandler(newBase(0), svc).RegisterRoutes(api, guards)
	})

	w := doJSON(r, http.MethodGet, "/api/v1/profiles/p-1", "", map[string]string{testUserHeader: "viewer-7"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "viewer-7", svc.viewerFor)
	assert.Contains(t, w.Body.String(), `"contact_locked":true`)

	w = doJSON(r, http.MethodGet, "/api/v1/profiles/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "", svc.viewerFor)
}

func TestProfileHandler_RemoveImageIndex(t *testing.T) {
	svc := &stubProfileService{removed: -1}
	r := newTestRouter(NewProfileHandler(newBase(0), svc).RegisterRoutes)
	admin := map[string]string{testUserHeader: "admin-1", testAdminHeader: "true"}

	w := doJSON(r, http.MethodDelete, "/api/v1/admin/profiles/p-1/images/x", "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, -1, svc.removed)

	w = doJSON(r, http.MethodDelete, "/api/v1/admin/profiles/p-1/images/2", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.removed)
}

// ============================================
// Auth
// ============================================

func TestAuthHandler_SessionRequiresAuth(t *testing.T) {
	r := newTestRouter(NewAuthHandler(newBase(0), nil).RegisterRoutes)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
