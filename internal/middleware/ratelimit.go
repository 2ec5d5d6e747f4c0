package middleware

import (
	"strconv"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// RateLimit counts requests per client IP. A failing store lets the request
// through.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.ServerMetrics, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.Enabled() {
			return c.Next()
		}
		allowed, count, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			log.Error(log.WithField(c.UserContext(), "ip", c.IP()), "rate limiter unavailable", err)
			return c.Next()
		}

		remaining := limiter.Limit() - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			if m != nil {
				m.RateLimited.Inc()
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(limiter.Window().Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
		}
		return c.Next()
	}
}
