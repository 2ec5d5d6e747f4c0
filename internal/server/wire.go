package server

import (
	"storefront/internal/config"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"gorm.io/gorm"
)

// NewServices wires the GORM repositories into the service layer.
// events may be nil when no broker is configured.
func NewServices(
	db *gorm.DB,
	cfg *config.Config,
	providers *payments.Registry,
	events services.EventPublisher,
	m *metrics.ServerMetrics,
	log *logger.Logger,
) Services {
	users := repositories.NewGORMUserRepository(db)
	products := repositories.NewGORMProductRepository(db)
	orders := repositories.NewGORMOrderRepository(db)

	coupons := services.NewCouponService(repositories.NewGORMCouponRepository(db))
	orderCfg := services.OrderServiceConfig{
		Pricing: services.Pricing{
			TaxRate:               cfg.Order.TaxRate,
			FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
			ShippingFee:           cfg.Order.ShippingFee,
		},
		CouponPolicy: services.CouponPolicy(cfg.Order.CouponPolicy),
	}

	return Services{
		Auth:         services.NewAuthService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log),
		Products:     services.NewProductService(products, log),
		Categories:   services.NewCategoryService(repositories.NewGORMCategoryRepository(db)),
		Coupons:      coupons,
		Orders:       services.NewOrderService(orders, products, coupons, orderCfg, events, m, log),
		Payments:     services.NewPaymentService(orders, providers, events, m, log),
		Blog:         services.NewBlogService(repositories.NewGORMBlogRepository(db), log),
		Testimonials: services.NewTestimonialService(repositories.NewGORMTestimonialRepository(db)),
		Contact:      services.NewContactService(repositories.NewGORMContactRepository(db), events, log),
		Dashboard:    services.NewDashboardService(repositories.NewGORMDashboardRepository(db)),
	}
}

// NewProviders registers every payment provider that has credentials.
func NewProviders(cfg *config.Config) *payments.Registry {
	var providers []payments.Provider
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		providers = append(providers, payments.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Order.Currency))
	}
	if cfg.Stripe.SecretKey != "" {
		providers = append(providers, payments.NewStripe(cfg.Stripe.SecretKey, cfg.Order.Currency))
	}
	return payments.NewRegistry(providers...)
}
