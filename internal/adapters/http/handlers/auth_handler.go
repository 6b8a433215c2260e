package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration and authentication endpoints
type AuthHandler struct {
	authService         *services.AuthService
	registrationService *services.RegistrationService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, registrationService *services.RegistrationService) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		registrationService: registrationService,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles a membership registration submission
// @Summary Submit a registration
// @Description Submit a membership registration with documents; paid plans return a checkout URL
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Full name"
// @Param email formData string true "Email"
// @Param password formData string true "Password (min 8 characters)"
// @Param plan_id formData int true "Membership plan ID"
// @Param linkedin_url formData string false "LinkedIn profile URL"
// @Param coupon_code formData string false "Discount coupon code"
// @Param id_document formData file false "Identity document"
// @Param experience_document formData file false "Professional experience document"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	planID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("plan_id")), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Plano inválido")
	}

	input := &services.SubmitInput{
		Name:        c.FormValue("name"),
		Email:       c.FormValue("email"),
		Password:    c.FormValue("password"),
		PlanID:      uint(planID),
		LinkedInURL: c.FormValue("linkedin_url"),
		CouponCode:  c.FormValue("coupon_code"),
	}

	docs := collectDocuments(c)

	result, err := h.registrationService.Submit(c.Context(), input, docs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return response.BadRequest(c, "Dados de cadastro inválidos")
		case errors.Is(err, services.ErrDuplicateEmail):
			return response.Conflict(c, "E-mail já cadastrado")
		case errors.Is(err, services.ErrPlanNotFound):
			return response.BadRequest(c, "Plano não encontrado")
		case errors.Is(err, services.ErrInvalidCoupon):
			return response.BadRequest(c, "Cupom inválido ou expirado")
		case errors.Is(err, services.ErrUnsupportedFileType):
			return response.BadRequest(c, "Tipo de arquivo não suportado")
		case errors.Is(err, services.ErrFileTooLarge):
			return response.BadRequest(c, "Arquivo excede o tamanho máximo de 10MB")
		case errors.Is(err, services.ErrPaymentInitiationFailed):
			return response.Error(c, fiber.StatusBadGateway, "Falha ao iniciar o pagamento, tente novamente")
		default:
			return response.InternalServerError(c, "Falha ao processar o cadastro")
		}
	}

	data := fiber.Map{
		"registration": result.Registration.ToResponse(),
	}
	if result.Checkout != nil {
		data["checkout_url"] = result.Checkout.InitPoint
		data["preference_id"] = result.Checkout.PreferenceID
		data["external_reference"] = result.Checkout.ExternalReference
	}

	return response.Created(c, "Cadastro recebido e aguardando aprovação", data)
}

// collectDocuments extracts the known document uploads from the form
func collectDocuments(c *fiber.Ctx) []services.DocumentUpload {
	var docs []services.DocumentUpload
	for _, docType := range []string{models.DocumentTypeID, models.DocumentTypeExperience} {
		if file := formFile(c, docType); file != nil {
			docs = append(docs, services.DocumentUpload{Type: docType, File: file})
		}
	}
	return docs
}

func formFile(c *fiber.Ctx, name string) *multipart.FileHeader {
	file, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return file
}

// Login handles member login
// @Summary Login
// @Description Authenticate a member and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Corpo da requisição inválido")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "E-mail e senha são obrigatórios")
	}

	input := &services.LoginInput{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return response.Unauthorized(c, "E-mail ou senha inválidos")
		}
		return response.InternalServerError(c, "Falha ao efetuar login")
	}

	return response.Success(c, "Login efetuado com sucesso", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated member's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Não autorizado")
	}

	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "Usuário não encontrado")
	}

	return response.Success(c, "Usuário recuperado com sucesso", fiber.Map{
		"user": user.ToResponse(),
	})
}
