package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment (and an
// optional .env file) through viper.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Order    OrderConfig
	Razorpay RazorpayConfig
	Stripe   StripeConfig
	SMTP     SMTPConfig
	Log      LogConfig
}

type AppConfig struct {
	Name            string
	Port            string
	CORSOrigins     string
	RateLimit       int
	RateWindow      time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite.
	Driver string
	DSN    string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
	Queue    string
	// Prefetch caps unacknowledged deliveries held by the consumer.
	Prefetch int
}

type RedisConfig struct {
	URL string
}

type OrderConfig struct {
	// CouponPolicy is "soft" (invalid coupon ignored) or "strict" (order rejected).
	CouponPolicy          string
	Currency              string
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type StripeConfig struct {
	SecretKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AdminTo  string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "storefront")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT", 100)
	v.SetDefault("RATE_WINDOW", "1m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Administrator")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "storefront")
	v.SetDefault("RABBITMQ_QUEUE", "storefront.notifications")
	v.SetDefault("RABBITMQ_PREFETCH", 10)

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("ORDER_COUPON_POLICY", "soft")
	v.SetDefault("ORDER_CURRENCY", "INR")
	v.SetDefault("ORDER_TAX_RATE", "0.18")
	v.SetDefault("ORDER_FREE_SHIPPING_THRESHOLD", "500")
	v.SetDefault("ORDER_SHIPPING_FEE", "50")

	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")
	v.SetDefault("STRIPE_SECRET_KEY", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_ADMIN_TO", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	taxRate, err := decimalValue(v, "ORDER_TAX_RATE")
	if err != nil {
		return nil, err
	}
	threshold, err := decimalValue(v, "ORDER_FREE_SHIPPING_THRESHOLD")
	if err != nil {
		return nil, err
	}
	shippingFee, err := decimalValue(v, "ORDER_SHIPPING_FEE")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("APP_PORT"),
			CORSOrigins:     v.GetString("CORS_ORIGINS"),
			RateLimit:       v.GetInt("RATE_LIMIT"),
			RateWindow:      v.GetDuration("RATE_WINDOW"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      v.GetDuration("JWT_TTL"),
			AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminName:     v.GetString("ADMIN_NAME"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
			Queue:    v.GetString("RABBITMQ_QUEUE"),
			Prefetch: v.GetInt("RABBITMQ_PREFETCH"),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		Order: OrderConfig{
			CouponPolicy:          strings.ToLower(v.GetString("ORDER_COUPON_POLICY")),
			Currency:              strings.ToUpper(v.GetString("ORDER_CURRENCY")),
			TaxRate:               taxRate,
			FreeShippingThreshold: threshold,
			ShippingFee:           shippingFee,
		},
		Razorpay: RazorpayConfig{
			KeyID:     v.GetString("RAZORPAY_KEY_ID"),
			KeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		},
		Stripe: StripeConfig{SecretKey: v.GetString("STRIPE_SECRET_KEY")},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
			AdminTo:  v.GetString("SMTP_ADMIN_TO"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Order.CouponPolicy {
	case "soft", "strict":
	default:
		return fmt.Errorf("unsupported ORDER_COUPON_POLICY %q", c.Order.CouponPolicy)
	}
	if c.Order.TaxRate.IsNegative() || c.Order.ShippingFee.IsNegative() || c.Order.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("order pricing settings must not be negative")
	}
	return nil
}

func decimalValue(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
