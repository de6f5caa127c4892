package handlers

import (
	"net/http"

	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type CountryHandler struct {
	*BaseHandler
	countryService services.CountryService
}

func NewCountryHandler(base *BaseHandler, countryService services.CountryService) *CountryHandler {
	return &CountryHandler{
		BaseHandler:    base,
		countryService: countryService,
	}
}

func (h *CountryHandler) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	admin := rg.Group("/admin/countries")
	admin.Use(guards.Auth, guards.Admin)
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func (h *CountryHandler) List(c *gin.Context) {
	countries, err := h.countryService.List(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, countries)
}

func (h *CountryHandler) Get(c *gin.Context) {
	country, err := h.countryService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, country)
}

func (h *CountryHandler) Create(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CountryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	country, err := h.countryService.Create(c.Request.Context(), h.GetDB(c), adminID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, country)
}

func (h *CountryHandler) Update(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CountryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	country, err := h.countryService.Update(c.Request.Context(), h.GetDB(c), adminID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, country)
}

func (h *CountryHandler) Delete(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.countryService.Delete(c.Request.Context(), h.GetDB(c), adminID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
