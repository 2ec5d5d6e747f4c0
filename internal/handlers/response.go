package handlers

import (
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/pagination"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool             `json:"success"`
	Data       any              `json:"data,omitempty"`
	Error      string           `json:"error,omitempty"`
	Message    string           `json:"message,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func respondMessage(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: message})
}

func respondPage(c *fiber.Ctx, data any, meta pagination.Meta) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Pagination: &meta})
}

// WriteError maps err onto its HTTP status and writes the error envelope.
// Internal causes are logged and never returned to the client.
func WriteError(c *fiber.Ctx, log *logger.Logger, err error) error {
	code := pkgerrors.CodeOf(err)
	meta := pkgerrors.MetadataFor(code)
	if code == pkgerrors.CodeInternal && log != nil {
		log.Error(c.UserContext(), "request failed", err)
	}
	return c.Status(meta.HTTPStatus).JSON(Envelope{Success: false, Error: pkgerrors.PublicMessage(err)})
}

// Guards are the auth middlewares routes are mounted behind. Optional
// identifies the caller when a token is sent but never rejects.
type Guards struct {
	Optional fiber.Handler
	Auth     fiber.Handler
	Admin    fiber.Handler
}
