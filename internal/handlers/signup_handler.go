package handlers

import (
	"net/http"

	"directory_backend/internal/services"
	"directory_backend/internal/services/dto"
	"directory_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type SignupHandler struct {
	*BaseHandler
	signupService services.SignupService
}

func NewSignupHandler(base *BaseHandler, signupService services.SignupService) *SignupHandler {
	return &SignupHandler{
		BaseHandler:   base,
		signupService: signupService,
	}
}

// RegisterRoutes регистрирует шаги мастера /signup
func (h *SignupHandler) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	signup := rg.Group("/signup")
	{
		signup.POST("/register", guards.rateLimit(), h.Register)
		signup.GET("/countries", h.ListCountries)
	}

	steps := signup.Group("")
	steps.Use(guards.Auth)
	{
		steps.POST("/country", h.SelectCountry)
		steps.GET("/instructions", h.Instructions)
		steps.POST("/paid", h.MarkPaid)
		steps.POST("/proof", h.SubmitProof)
		steps.GET("/state", h.State)
	}
}

// Register godoc
// @Summary Регистрация
// @Description Создает пользователя и возвращает сессию для следующих шагов мастера
// @Tags signup
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Имя и пароль"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} map[string]interface{} "Ошибка валидации"
// @Failure 409 {object} map[string]interface{} "Имя занято"
// @Router /signup/register [post]
func (h *SignupHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.signupService.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListCountries godoc
// @Summary Страны, доступные для регистрации
// @Tags signup
// @Produce json
// @Success 200 {array} dto.CountryOption
// @Router /signup/countries [get]
func (h *SignupHandler) ListCountries(c *gin.Context) {
	countries, err := h.signupService.ListCountries(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, countries)
}

func (h *SignupHandler) SelectCountry(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SelectCountryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	state, err := h.signupService.SelectCountry(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Instructions godoc
// @Summary Реквизиты для оплаты
// @Tags signup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PaymentInstructions
// @Failure 409 {object} map[string]interface{} "Неверный шаг"
// @Router /signup/instructions [get]
func (h *SignupHandler) Instructions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	instructions, err := h.signupService.Instructions(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instructions)
}

func (h *SignupHandler) MarkPaid(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	state, err := h.signupService.MarkPaid(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// SubmitProof godoc
// @Summary Загрузка подтверждения оплаты
// @Description После загрузки пользователь разлогинен и ждет проверки
// @Tags signup
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Скриншот оплаты"
// @Success 201 {object} dto.ProofResponse
// @Failure 409 {object} map[string]interface{} "Предыдущая проверка еще не завершена"
// @Failure 413 {object} map[string]interface{} "Файл слишком большой"
// @Failure 415 {object} map[string]interface{} "Недопустимый тип файла"
// @Router /signup/proof [post]
func (h *SignupHandler) SubmitProof(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.ErrFileRequired)
		return
	}
	data, err := h.readFile(fh)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp, err := h.signupService.SubmitProof(c.Request.Context(), h.GetDB(c), userID, &dto.ProofUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SignupHandler) State(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	state, err := h.signupService.State(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}
