package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	service *services.ProductService
	log     *logger.Logger
}

func NewProductHandler(service *services.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{service: service, log: log}
}

// RegisterRoutes mounts public reads, authenticated reviews and admin writes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, g Guards) {
	products := router.Group("/products")
	products.Get("/", g.Optional, h.HandleList)
	products.Get("/:idOrSlug", g.Optional, h.HandleGet)
	products.Post("/", g.Auth, g.Admin, h.HandleCreate)
	products.Put("/:id", g.Auth, g.Admin, h.HandleUpdate)
	products.Delete("/:id", g.Auth, g.Admin, h.HandleDelete)
	products.Post("/:id/reviews", g.Auth, h.HandleAddReview)
}

func productFilter(c *fiber.Ctx) (repositories.ProductFilter, error) {
	var (
		f   repositories.ProductFilter
		err error
	)
	f.CategoryID = c.Query("category")
	f.Search = c.Query("search")
	f.Sort = repositories.ProductSort(c.Query("sortBy", c.Query("sort")))
	f.Tags = splitList(c.Query("tags"))
	if f.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return f, err
	}
	if f.MinRating, err = queryFloat(c, "rating"); err != nil {
		return f, err
	}
	if f.Featured, err = queryBool(c, "featured"); err != nil {
		return f, err
	}
	if f.InStock, err = queryFlag(c, "inStock"); err != nil {
		return f, err
	}
	if f.IncludeInactive, err = queryFlag(c, "includeInactive"); err != nil {
		return f, err
	}
	return f, nil
}

// HandleList lists products. includeInactive is only honoured for admins.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	filter, err := productFilter(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	page, err := pageParams(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	if !middleware.IsAdmin(c) {
		filter.IncludeInactive = false
	}

	products, meta, err := h.service.ListProducts(c.UserContext(), filter, page)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondPage(c, products, meta)
}

func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("idOrSlug"), middleware.IsAdmin(c))
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, product)
}

func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, product, "Product created successfully")
}

func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, product, "Product updated successfully")
}

func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, nil, "Product deleted successfully")
}

func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var req services.ReviewInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	product, err := h.service.AddReview(c.UserContext(), c.Params("id"), middleware.UserID(c), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, product, "Review added successfully")
}
