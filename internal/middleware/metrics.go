package middleware

import (
	"strconv"
	"time"

	"storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency labelled by the matched route
// pattern, so ids in paths do not explode cardinality.
func Metrics(m *metrics.ServerMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		m.Requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(c.Method(), route).Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	}
}
