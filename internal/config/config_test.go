package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, 100, cfg.App.RateLimit)
	assert.Equal(t, time.Minute, cfg.App.RateWindow)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "soft", cfg.Order.CouponPolicy)
	assert.Equal(t, "0.18", cfg.Order.TaxRate.String())
	assert.Equal(t, "500", cfg.Order.FreeShippingThreshold.String())
	assert.Equal(t, "50", cfg.Order.ShippingFee.String())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestFromViperRejectsBadSettings(t *testing.T) {
	_, err := FromViper(newViper(nil))
	assert.ErrorContains(t, err, "JWT_SECRET")

	_, err = FromViper(newViper(map[string]any{"JWT_SECRET": "x", "DB_DRIVER": "oracle"}))
	assert.ErrorContains(t, err, "DB_DRIVER")

	_, err = FromViper(newViper(map[string]any{"JWT_SECRET": "x", "ORDER_COUPON_POLICY": "lenient"}))
	assert.ErrorContains(t, err, "ORDER_COUPON_POLICY")

	_, err = FromViper(newViper(map[string]any{"JWT_SECRET": "x", "ORDER_TAX_RATE": "abc"}))
	assert.ErrorContains(t, err, "ORDER_TAX_RATE")
}

func TestFromViperNormalisesCase(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"JWT_SECRET":          "x",
		"DB_DRIVER":           "SQLite",
		"ORDER_COUPON_POLICY": "STRICT",
		"ADMIN_EMAIL":         " Admin@Shop.test ",
	}))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "strict", cfg.Order.CouponPolicy)
	assert.Equal(t, "admin@shop.test", cfg.Auth.AdminEmail)
}
