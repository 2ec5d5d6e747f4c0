package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PaymentHandler exposes initiate (POST) and confirm (PUT) per provider.
type PaymentHandler struct {
	service *services.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service *services.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

func (h *PaymentHandler) RegisterRoutes(router fiber.Router, g Guards) {
	payment := router.Group("/payment", g.Auth)
	payment.Post("/razorpay", h.initiate(models.PaymentRazorpay))
	payment.Put("/razorpay", h.HandleConfirmRazorpay)
	payment.Post("/stripe", h.initiate(models.PaymentStripe))
	payment.Put("/stripe", h.HandleConfirmStripe)
}

type initiatePaymentRequest struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
}

func (h *PaymentHandler) initiate(method models.PaymentMethod) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req initiatePaymentRequest
		if err := bind(c, &req); err != nil {
			return WriteError(c, h.log, err)
		}
		started, err := h.service.Initiate(c.UserContext(), method, middleware.UserID(c), req.OrderID, req.Amount)
		if err != nil {
			return WriteError(c, h.log, err)
		}
		return respond(c, fiber.StatusOK, started)
	}
}

type razorpayConfirmRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"orderId"`
}

func (h *PaymentHandler) HandleConfirmRazorpay(c *fiber.Ctx) error {
	var req razorpayConfirmRequest
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	order, err := h.service.Confirm(c.UserContext(), models.PaymentRazorpay, middleware.UserID(c), req.OrderID, payments.Callback{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
	})
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, order, "Payment verified successfully")
}

type stripeConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
}

func (h *PaymentHandler) HandleConfirmStripe(c *fiber.Ctx) error {
	var req stripeConfirmRequest
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	order, err := h.service.Confirm(c.UserContext(), models.PaymentStripe, middleware.UserID(c), req.OrderID, payments.Callback{
		PaymentIntentID: req.PaymentIntentID,
	})
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusOK, order, "Payment verified successfully")
}
