package handlers

import (
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	service *services.CouponService
	log     *logger.Logger
}

func NewCouponHandler(service *services.CouponService, log *logger.Logger) *CouponHandler {
	return &CouponHandler{service: service, log: log}
}

func (h *CouponHandler) RegisterRoutes(router fiber.Router, g Guards) {
	coupons := router.Group("/coupons", g.Auth)
	coupons.Post("/validate", h.HandleValidate)
	coupons.Get("/", g.Admin, h.HandleList)
	coupons.Post("/", g.Admin, h.HandleCreate)
	coupons.Put("/:id", g.Admin, h.HandleUpdate)
	coupons.Delete("/:id", g.Admin, h.HandleDelete)
}

type validateCouponRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// HandleValidate reports whether a code applies to a cart subtotal. An
// unusable coupon is still a 200 with valid=false and the reason.
func (h *CouponHandler) HandleValidate(c *fiber.Ctx) error {
	var req validateCouponRequest
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	result, err := h.service.Evaluate(c.UserContext(), req.Code, req.Subtotal)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, result)
}

func (h *CouponHandler) HandleList(c *fiber.Ctx) error {
	page, err := pageParams(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	coupons, meta, err := h.service.List(c.UserContext(), page)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondPage(c, coupons, meta)
}

func (h *CouponHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.CouponInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	coupon, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, coupon, "Coupon created successfully")
}

func (h *CouponHandler) HandleUpdate(c *fiber.Ctx) error {
	var req services.CouponInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	coupon, err := h.service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, coupon, "Coupon updated successfully")
}

func (h *CouponHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, nil, "Coupon deleted successfully")
}
