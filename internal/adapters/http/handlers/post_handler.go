package handlers

import (
	"errors"

	"github.com/anetioficial/comunidade/internal/core/services"
	"github.com/anetioficial/comunidade/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PostHandler handles the member feed endpoints
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Create publishes a post to the member feed
// @Summary Create post
// @Description Publish a post to the member feed
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePostInput true "Post content"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /posts [post]
func (h *PostHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Não autorizado")
	}

	var input services.CreatePostInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Corpo da requisição inválido")
	}

	post, err := h.postService.Create(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPost):
			return response.BadRequest(c, "Conteúdo da publicação é obrigatório")
		case errors.Is(err, services.ErrPostTooLong):
			return response.BadRequest(c, "Conteúdo da publicação muito longo")
		default:
			return response.InternalServerError(c, "Falha ao criar a publicação")
		}
	}

	return response.Created(c, "Publicação criada com sucesso", post)
}

// List returns the latest feed posts
// @Summary List posts
// @Description List the latest member feed posts, newest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /posts [get]
func (h *PostHandler) List(c *fiber.Ctx) error {
	posts, err := h.postService.ListLatest(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Falha ao listar as publicações")
	}

	return response.Success(c, "Publicações recuperadas com sucesso", posts)
}
