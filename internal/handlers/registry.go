package handlers

import "github.com/gin-gonic/gin"

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	SignupHandler     *SignupHandler
	ModerationHandler *ModerationHandler
	CountryHandler    *CountryHandler
	ProfileHandler    *ProfileHandler
	WSHandler         *WSHandler
}

// RegisterRoutes вешает все API маршруты на группу /api/v1
func (a *AppHandlers) RegisterRoutes(api *gin.RouterGroup, guards Guards) {
	a.AuthHandler.RegisterRoutes(api, guards)
	a.SignupHandler.RegisterRoutes(api, guards)
	a.ModerationHandler.RegisterRoutes(api, guards)
	a.CountryHandler.RegisterRoutes(api, guards)
	a.ProfileHandler.RegisterRoutes(api, guards)
}
