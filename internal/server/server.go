package server

import (
	"context"
	"errors"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/services"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth         *services.AuthService
	Products     *services.ProductService
	Categories   *services.CategoryService
	Coupons      *services.CouponService
	Orders       *services.OrderService
	Payments     *services.PaymentService
	Blog         *services.BlogService
	Testimonials *services.TestimonialService
	Contact      *services.ContactService
	Dashboard    *services.DashboardService
}

type Options struct {
	Name        string
	CORSOrigins string
	// AccessLog enables fiber's request logger on stdout.
	AccessLog bool
	// Ping reports dependency health for /health. Optional.
	Ping func(ctx context.Context) error
}

// NewApp builds the fiber app with middleware and all /api/v1 routes.
func NewApp(opts Options, svc Services, limiter *ratelimit.Limiter, m *metrics.ServerMetrics, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.Name,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext(log))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if m != nil {
		app.Use(middleware.Metrics(m))
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	app.Get("/health", health(opts.Ping))

	api := app.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, m, log))
	}
	apiV1 := api.Group("/v1")

	guards := handlers.Guards{
		Optional: middleware.OptionalAuth(svc.Auth, log),
		Auth:     middleware.AuthRequired(svc.Auth, log),
		Admin:    middleware.AdminRequired(),
	}

	handlers.NewAuthHandler(svc.Auth, log).RegisterRoutes(apiV1)
	handlers.NewProductHandler(svc.Products, log).RegisterRoutes(apiV1, guards)
	handlers.NewCategoryHandler(svc.Categories, log).RegisterRoutes(apiV1, guards)
	handlers.NewCouponHandler(svc.Coupons, log).RegisterRoutes(apiV1, guards)
	handlers.NewOrderHandler(svc.Orders, log).RegisterRoutes(apiV1, guards)
	handlers.NewPaymentHandler(svc.Payments, log).RegisterRoutes(apiV1, guards)
	handlers.NewBlogHandler(svc.Blog, log).RegisterRoutes(apiV1, guards)
	handlers.NewSiteHandler(svc.Testimonials, svc.Contact, svc.Dashboard, log).RegisterRoutes(apiV1, guards)

	return app
}

func health(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, code := "healthy", fiber.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, code = "unhealthy", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// errorHandler renders errors that escape handlers (unknown routes, body
// limits, panics) in the standard envelope.
func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(handlers.Envelope{Success: false, Error: fe.Message})
		}
		return handlers.WriteError(c, log, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unhandled error"))
	}
}
