package handlers

import (
	"errors"
	"strconv"

	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles membership plan endpoints
type PlanHandler struct {
	planService *services.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// ListActive returns the plans offered on the registration page
// @Summary List active plans
// @Description List the membership plans available for registration
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *PlanHandler) ListActive(c *fiber.Ctx) error {
	plans, err := h.planService.ListActive(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Falha ao listar os planos")
	}
	return response.Success(c, "Planos recuperados com sucesso", plans)
}

// Get returns a single plan
// @Summary Get plan
// @Description Get a membership plan by ID
// @Tags Plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do plano inválido")
	}

	plan, err := h.planService.Get(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			return response.NotFound(c, "Plano não encontrado")
		}
		return response.InternalServerError(c, "Falha ao recuperar o plano")
	}

	return response.Success(c, "Plano recuperado com sucesso", plan)
}

// ListAll returns every plan, including deactivated ones
// @Summary List all plans
// @Description List all membership plans, including deactivated ones
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /plans/admin [get]
func (h *PlanHandler) ListAll(c *fiber.Ctx) error {
	plans, err := h.planService.ListAll(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Falha ao listar os planos")
	}
	return response.Success(c, "Planos recuperados com sucesso", plans)
}

// Create adds a new membership plan
// @Summary Create plan
// @Description Create a new membership plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PlanInput true "Plan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /plans/admin [post]
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var input services.PlanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Corpo da requisição inválido")
	}

	plan, err := h.planService.Create(c.Context(), &input)
	if err != nil {
		if errors.Is(err, services.ErrPlanValidation) {
			return response.BadRequest(c, "Nome e preço do plano são obrigatórios")
		}
		return response.InternalServerError(c, "Falha ao criar o plano")
	}

	return response.Created(c, "Plano criado com sucesso", plan)
}

// Update edits a membership plan
// @Summary Update plan
// @Description Update a membership plan's fields
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param body body services.PlanInput true "Plan fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /plans/admin/{id} [put]
func (h *PlanHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do plano inválido")
	}

	var input services.PlanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Corpo da requisição inválido")
	}

	plan, err := h.planService.Update(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			return response.NotFound(c, "Plano não encontrado")
		case errors.Is(err, services.ErrPlanValidation):
			return response.BadRequest(c, "Dados do plano inválidos")
		default:
			return response.InternalServerError(c, "Falha ao atualizar o plano")
		}
	}

	return response.Success(c, "Plano atualizado com sucesso", plan)
}

// Deactivate hides a plan from the registration page
// @Summary Deactivate plan
// @Description Deactivate a membership plan without deleting it
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /plans/admin/{id} [delete]
func (h *PlanHandler) Deactivate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "ID do plano inválido")
	}

	if err := h.planService.Deactivate(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			return response.NotFound(c, "Plano não encontrado")
		}
		return response.InternalServerError(c, "Falha ao desativar o plano")
	}

	return response.Success(c, "Plano desativado com sucesso", nil)
}
