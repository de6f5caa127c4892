package handlers

import (
	"net/http"

	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes регистрирует маршруты /auth
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", guards.rateLimit(), h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", guards.Auth, h.Logout)
		auth.GET("/session", guards.Auth, h.Session)
	}
}

// Login godoc
// @Summary Вход по имени пользователя или логину
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Имя и пароль"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} map[string]interface{} "Неверные данные"
// @Failure 403 {object} map[string]interface{} "Пользователь заблокирован"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.SignIn(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.authService.Refresh(h.GetDB(c), req.RefreshToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout отзывает все refresh токены пользователя
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), h.GetDB(c), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

// Session godoc
// @Summary Текущая сессия
// @Description Пользователь, флаги модерации, признак админа и шаг регистрации
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SessionInfo
// @Failure 401 {object} map[string]interface{}
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	info, err := h.authService.GetSession(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
