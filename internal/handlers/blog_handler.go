package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type BlogHandler struct {
	service *services.BlogService
	log     *logger.Logger
}

func NewBlogHandler(service *services.BlogService, log *logger.Logger) *BlogHandler {
	return &BlogHandler{service: service, log: log}
}

func (h *BlogHandler) RegisterRoutes(router fiber.Router, g Guards) {
	blog := router.Group("/blog")
	blog.Get("/", g.Optional, h.HandleListPosts)
	blog.Post("/", g.Auth, g.Admin, h.HandleCreatePost)
	blog.Get("/categories", h.HandleListCategories)
	blog.Post("/categories", g.Auth, g.Admin, h.HandleCreateCategory)
	blog.Get("/:slug", h.HandleGetPost)
}

// HandleListPosts lists published posts. Admins may filter by any status.
func (h *BlogHandler) HandleListPosts(c *fiber.Ctx) error {
	page, err := pageParams(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	filter := repositories.BlogFilter{
		Status:       models.PostStatus(c.Query("status")),
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Tag:          c.Query("tag"),
	}
	if !middleware.IsAdmin(c) {
		filter.Status = models.PostPublished
	}
	posts, meta, err := h.service.ListPosts(c.UserContext(), filter, page)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondPage(c, posts, meta)
}

func (h *BlogHandler) HandleGetPost(c *fiber.Ctx) error {
	post, err := h.service.GetPost(c.UserContext(), c.Params("slug"))
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, post)
}

func (h *BlogHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req services.BlogPostInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	post, err := h.service.CreatePost(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, post, "Post created successfully")
}

func (h *BlogHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, categories)
}

func (h *BlogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req services.BlogCategoryInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	category, err := h.service.CreateCategory(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, category, "Category created successfully")
}
