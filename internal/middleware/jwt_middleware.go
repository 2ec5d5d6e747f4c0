package middleware

import (
	"strings"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Debug(log.WithField(c.UserContext(), "error", err.Error()), "jwt validation failed")
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, string(claims.Role))
		c.SetUserContext(log.WithField(c.UserContext(), "user_id", claims.UserID))
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present and
// otherwise continues anonymously.
func OptionalAuth(authService *services.AuthService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return c.Next()
		}
		if claims, err := authService.ValidateToken(token); err == nil {
			c.Locals(LocalUserID, claims.UserID)
			c.Locals(LocalEmail, claims.Email)
			c.Locals(LocalRole, string(claims.Role))
			c.SetUserContext(log.WithField(c.UserContext(), "user_id", claims.UserID))
		}
		return c.Next()
	}
}

// AdminRequired rejects principals without the admin role. It must run after
// AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id, or "" when unauthenticated.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(LocalRole).(string)
	return role == string(models.RoleAdmin)
}
