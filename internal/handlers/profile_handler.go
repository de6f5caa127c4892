package handlers

import (
	"net/http"
	"strconv"

	"directory_backend/internal/middleware"
	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const maxImagesPerRequest = 10

type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
	}
}

// RegisterRoutes: публичный каталог и управление карточками в админке
func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	public := rg.Group("/profiles")
	{
		public.GET("", h.List)
		public.GET("/:id", h.Get)
	}

	admin := rg.Group("/admin/profiles")
	admin.Use(guards.Auth, guards.Admin)
	{
		admin.GET("", h.List)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
		admin.POST("/:id/images", h.AddImages)
		admin.DELETE("/:id/images/:index", h.RemoveImage)
	}
}

func (h *ProfileHandler) viewer(c *gin.Context) *dto.Viewer {
	return h.profileService.ResolveViewer(h.GetDB(c), middleware.GetUserID(c))
}

// List godoc
// @Summary Каталог анкет
// @Description Контакты премиум-анкет видны только одобренным пользователям
// @Tags profiles
// @Produce json
// @Param city query string false "Город"
// @Param country query string false "Страна"
// @Param verified query bool false "Только проверенные"
// @Param premium query bool false "Только премиум"
// @Param page query int false "Страница"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} dto.PaginatedResponse
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	var query dto.ProfileListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.profileService.List(c.Request.Context(), h.GetDB(c), &query, h.viewer(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Анкета по ID
// @Tags profiles
// @Produce json
// @Param id path string true "ID анкеты"
// @Success 200 {object} dto.ProfileResponse
// @Failure 404 {object} map[string]interface{}
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	resp, err := h.profileService.Get(c.Request.Context(), h.GetDB(c), c.Param("id"), h.viewer(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandler) Create(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.profileService.Create(c.Request.Context(), h.GetDB(c), adminID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.profileService.Update(c.Request.Context(), h.GetDB(c), adminID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), h.GetDB(c), adminID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddImages принимает файлы из полей "images" (несколько) или "file"
func (h *ProfileHandler) AddImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		apperrors.HandleError(c, apperrors.ErrFileRequired)
		return
	}

	files := append(form.File["images"], form.File["file"]...)
	if len(files) == 0 {
		apperrors.HandleError(c, apperrors.ErrFileRequired)
		return
	}
	if len(files) > maxImagesPerRequest {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Too many files in one request"))
		return
	}

	uploads := make([]dto.ImageUpload, 0, len(files))
	for _, fh := range files {
		data, err := h.readFile(fh)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		uploads = append(uploads, dto.ImageUpload{FileName: fh.Filename, Size: fh.Size, Data: data})
	}

	resp, err := h.profileService.AddImages(c.Request.Context(), h.GetDB(c), c.Param("id"), uploads)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandler) RemoveImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid image index"))
		return
	}

	resp, err := h.profileService.RemoveImage(c.Request.Context(), h.GetDB(c), c.Param("id"), index)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
