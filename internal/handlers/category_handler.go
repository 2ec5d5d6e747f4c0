package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	service *services.CategoryService
	log     *logger.Logger
}

func NewCategoryHandler(service *services.CategoryService, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, log: log}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router, g Guards) {
	categories := router.Group("/categories")
	categories.Get("/", g.Optional, h.HandleList)
	categories.Post("/", g.Auth, g.Admin, h.HandleCreate)
}

func (h *CategoryHandler) HandleList(c *fiber.Ctx) error {
	parentOnly, err := queryFlag(c, "parentOnly")
	if err != nil {
		return WriteError(c, h.log, err)
	}
	includeInactive, err := queryFlag(c, "includeInactive")
	if err != nil {
		return WriteError(c, h.log, err)
	}
	categories, err := h.service.List(c.UserContext(), repositories.CategoryFilter{
		ParentOnly:      parentOnly,
		IncludeInactive: includeInactive && middleware.IsAdmin(c),
	})
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, categories)
}

func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.CategoryInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	category, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, category, "Category created successfully")
}
