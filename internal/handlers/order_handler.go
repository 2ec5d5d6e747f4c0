package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	log     *logger.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, log: log}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, g Guards) {
	orderRoutes := router.Group("/orders", g.Auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status", g.Admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the caller's own orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	page, err := pageParams(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	filter := repositories.OrderFilter{
		UserID: middleware.UserID(c),
		Status: models.OrderStatus(c.Query("status")),
	}
	orders, meta, err := h.service.ListOrders(c.UserContext(), filter, page)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondPage(c, orders, meta)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, order)
}

// HandleCreateOrder creates a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	createdOrder, err := h.service.CreateOrder(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, createdOrder, "Order created successfully")
}

type updateStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber" validate:"max=100"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, req.TrackingNumber)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, order, "Order status updated successfully")
}
