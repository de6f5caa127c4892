package handlers

import (
	"context"
	"net/http"

	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ModerationHandler - очередь проверок оплаты, баны, флаги анкет, выключатель сайта
type ModerationHandler struct {
	*BaseHandler
	moderationService services.ModerationService
	userService       services.UserService
	statsService      services.StatsService
}

func NewModerationHandler(
	base *BaseHandler,
	moderationService services.ModerationService,
	userService services.UserService,
	statsService services.StatsService,
) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:       base,
		moderationService: moderationService,
		userService:       userService,
		statsService:      statsService,
	}
}

func (h *ModerationHandler) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	rg.GET("/site-status", h.GetSiteStatus)

	admin := rg.Group("/admin")
	admin.Use(guards.Auth, guards.Admin)
	{
		admin.GET("/verifications", h.ListVerifications)
		admin.POST("/verifications/:id/approve", h.Approve)
		admin.POST("/verifications/:id/decline", h.Decline)

		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:userId/ban", h.SetBanned)

		admin.PUT("/profiles/:id/verified", h.SetProfileVerified)
		admin.PUT("/profiles/:id/premium", h.SetProfilePremium)

		admin.PUT("/site-status", h.UpdateSiteStatus)
		admin.GET("/audit", h.ListAudit)
		admin.GET("/stats", h.Stats)
	}
}

// ListVerifications godoc
// @Summary Очередь проверок оплаты
// @Description Новые сверху; имя пользователя подставляется отдельным запросом
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved или declined"
// @Success 200 {object} dto.PaginatedResponse
// @Failure 403 {object} map[string]interface{}
// @Router /admin/verifications [get]
func (h *ModerationHandler) ListVerifications(c *gin.Context) {
	var query dto.VerificationListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.moderationService.ListVerifications(c.Request.Context(), h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary Одобрить оплату
// @Description Проверка и статус пользователя меняются в одной транзакции
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID проверки"
// @Success 200 {object} dto.VerificationItem
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Уже рассмотрена"
// @Router /admin/verifications/{id}/approve [post]
func (h *ModerationHandler) Approve(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	item, err := h.moderationService.Approve(c.Request.Context(), h.GetDB(c), adminID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ModerationHandler) Decline(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	item, err := h.moderationService.Decline(c.Request.Context(), h.GetDB(c), adminID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ModerationHandler) ListUsers(c *gin.Context) {
	var query dto.UserListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.userService.List(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ModerationHandler) SetBanned(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	status, err := h.moderationService.SetBanned(c.Request.Context(), h.GetDB(c), adminID, c.Param("userId"), *req.Banned)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ModerationHandler) SetProfileVerified(c *gin.Context) {
	h.setProfileFlag(c, h.moderationService.SetProfileVerified)
}

func (h *ModerationHandler) SetProfilePremium(c *gin.Context) {
	h.setProfileFlag(c, h.moderationService.SetProfilePremium)
}

type profileFlagSetter func(ctx context.Context, db *gorm.DB, adminID, profileID string, value bool) (*dto.ProfileResponse, error)

func (h *ModerationHandler) setProfileFlag(c *gin.Context, set profileFlagSetter) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.FlagRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := set(c.Request.Context(), h.GetDB(c), adminID, c.Param("id"), *req.Value)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSiteStatus godoc
// @Summary Состояние сайта
// @Description Публичный; клиенты также получают изменения через /ws?topics=site_status
// @Tags site
// @Produce json
// @Success 200 {object} models.SiteStatus
// @Router /site-status [get]
func (h *ModerationHandler) GetSiteStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.moderationService.GetSiteStatus())
}

// UpdateSiteStatus godoc
// @Summary Выключатель сайта
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SiteStatusRequest true "Статус"
// @Success 200 {object} models.SiteStatus
// @Router /admin/site-status [put]
func (h *ModerationHandler) UpdateSiteStatus(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SiteStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	status, err := h.moderationService.UpdateSiteStatus(c.Request.Context(), h.GetDB(c), adminID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *ModerationHandler) ListAudit(c *gin.Context) {
	var query dto.AuditQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.moderationService.ListAudit(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ModerationHandler) Stats(c *gin.Context) {
	stats, err := h.statsService.Get(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
