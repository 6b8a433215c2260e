package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/pagination"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the registration review endpoints
type AdminHandler struct {
	registrationService *services.RegistrationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(registrationService *services.RegistrationService) *AdminHandler {
	return &AdminHandler{registrationService: registrationService}
}

// RejectRequest represents a rejection request body
type RejectRequest struct {
	Justification string `json:"justification"`
}

// ListPending lists registrations awaiting review
// @Summary List pending registrations
// @Description List registrations awaiting an admin decision, newest first
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/pending [get]
func (h *AdminHandler) ListPending(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	regs, total, err := h.registrationService.ListPending(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Falha ao listar os cadastros")
	}

	items := make([]*models.RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		items = append(items, reg.ToResponse())
	}

	return response.Success(c, "Cadastros recuperados com sucesso", fiber.Map{
		"registrations": items,
		"pagination":    pagination.GetMeta(params, total),
	})
}

// GetRegistration returns a registration with its documents
// @Summary Get registration details
// @Description Get a registration with its uploaded documents for review
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/{id} [get]
func (h *AdminHandler) GetRegistration(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do cadastro inválido")
	}

	details, err := h.registrationService.GetDetails(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrRegistrationNotFound) {
			return response.NotFound(c, "Cadastro não encontrado")
		}
		return response.InternalServerError(c, "Falha ao recuperar o cadastro")
	}

	return response.Success(c, "Cadastro recuperado com sucesso", details)
}

// GetDocument streams a registration document for inline review
// @Summary Download registration document
// @Description Stream a registration's uploaded document
// @Tags Admin
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param documentId path int true "Document ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /admin/{id}/documents/{documentId} [get]
func (h *AdminHandler) GetDocument(c *fiber.Ctx) error {
	regID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do cadastro inválido")
	}
	docID, err := strconv.ParseUint(c.Params("documentId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do documento inválido")
	}

	doc, content, err := h.registrationService.GetDocument(c.Context(), uint(regID), uint(docID))
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return response.NotFound(c, "Documento não encontrado")
		}
		return response.InternalServerError(c, "Falha ao recuperar o documento")
	}

	c.Set(fiber.HeaderContentType, doc.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.FileName))
	return c.Send(content)
}

// Approve approves a pending registration
// @Summary Approve registration
// @Description Approve a pending registration and create the member account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/{id}/approve [post]
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Não autorizado")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do cadastro inválido")
	}

	reg, err := h.registrationService.Approve(c.Context(), uint(id), adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRegistrationNotFound):
			return response.NotFound(c, "Cadastro não encontrado")
		case errors.Is(err, services.ErrRegistrationNotPending):
			return response.Conflict(c, "Cadastro já foi analisado")
		case errors.Is(err, services.ErrPaymentNotConfirmed):
			return response.Error(c, fiber.StatusUnprocessableEntity, "Pagamento ainda não confirmado")
		default:
			return response.InternalServerError(c, "Falha ao aprovar o cadastro")
		}
	}

	return response.Success(c, "Cadastro aprovado com sucesso", reg.ToResponse())
}

// Reject rejects a pending registration with a justification
// @Summary Reject registration
// @Description Reject a pending registration with a mandatory justification
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body RejectRequest true "Rejection justification"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/{id}/reject [post]
func (h *AdminHandler) Reject(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Não autorizado")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do cadastro inválido")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Corpo da requisição inválido")
	}

	reg, err := h.registrationService.Reject(c.Context(), uint(id), adminID, req.Justification)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrJustificationRequired):
			return response.BadRequest(c, "Justificativa é obrigatória")
		case errors.Is(err, services.ErrRegistrationNotFound):
			return response.NotFound(c, "Cadastro não encontrado")
		case errors.Is(err, services.ErrRegistrationNotPending):
			return response.Conflict(c, "Cadastro já foi analisado")
		default:
			return response.InternalServerError(c, "Falha ao rejeitar o cadastro")
		}
	}

	return response.Success(c, "Cadastro rejeitado", reg.ToResponse())
}
