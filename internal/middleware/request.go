package middleware

import (
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestContext tags the request's context with its id so service logs can
// be correlated with access logs. It must run after requestid.New.
func RequestContext(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		c.SetUserContext(log.WithFields(c.UserContext(), map[string]any{
			"request_id": id,
			"method":     c.Method(),
			"path":       c.Path(),
		}))
		return c.Next()
	}
}
