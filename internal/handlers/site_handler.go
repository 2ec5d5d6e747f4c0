package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// SiteHandler serves testimonials, the contact inbox and the admin dashboard.
type SiteHandler struct {
	testimonials *services.TestimonialService
	contact      *services.ContactService
	dashboard    *services.DashboardService
	log          *logger.Logger
}

func NewSiteHandler(
	testimonials *services.TestimonialService,
	contact *services.ContactService,
	dashboard *services.DashboardService,
	log *logger.Logger,
) *SiteHandler {
	return &SiteHandler{testimonials: testimonials, contact: contact, dashboard: dashboard, log: log}
}

func (h *SiteHandler) RegisterRoutes(router fiber.Router, g Guards) {
	router.Get("/testimonials", g.Optional, h.HandleListTestimonials)
	router.Post("/testimonials", g.Auth, g.Admin, h.HandleCreateTestimonial)

	router.Post("/contact", h.HandleSubmitContact)
	router.Get("/contact", g.Auth, g.Admin, h.HandleListContact)
	router.Patch("/contact/:id/read", g.Auth, g.Admin, h.HandleMarkRead)

	router.Get("/admin/dashboard", g.Auth, g.Admin, h.HandleDashboard)
}

func (h *SiteHandler) HandleListTestimonials(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return WriteError(c, h.log, err)
	}
	includeInactive, err := queryFlag(c, "includeInactive")
	if err != nil {
		return WriteError(c, h.log, err)
	}
	items, err := h.testimonials.List(c.UserContext(), includeInactive && middleware.IsAdmin(c), limit)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, items)
}

func (h *SiteHandler) HandleCreateTestimonial(c *fiber.Ctx) error {
	var req services.TestimonialInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	item, err := h.testimonials.Create(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, item, "Testimonial created successfully")
}

func (h *SiteHandler) HandleSubmitContact(c *fiber.Ctx) error {
	var req services.ContactInput
	if err := bind(c, &req); err != nil {
		return WriteError(c, h.log, err)
	}
	msg, err := h.contact.Submit(c.UserContext(), req)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondMessage(c, fiber.StatusCreated, msg, "Message sent successfully")
}

func (h *SiteHandler) HandleListContact(c *fiber.Ctx) error {
	page, err := pageParams(c)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	isRead, err := queryBool(c, "isRead")
	if err != nil {
		return WriteError(c, h.log, err)
	}
	msgs, meta, err := h.contact.List(c.UserContext(), isRead, page)
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respondPage(c, msgs, meta)
}

func (h *SiteHandler) HandleMarkRead(c *fiber.Ctx) error {
	msg, err := h.contact.MarkRead(c.UserContext(), c.Params("id"))
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, msg)
}

func (h *SiteHandler) HandleDashboard(c *fiber.Ctx) error {
	d, err := h.dashboard.Build(c.UserContext())
	if err != nil {
		return WriteError(c, h.log, err)
	}
	return respond(c, fiber.StatusOK, d)
}
