package database

import (
	"testing"

	"storefront/internal/config"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenInMemoryMigrates(t *testing.T) {
	db, err := OpenInMemory(t.Name())
	require.NoError(t, err)

	for _, model := range []any{&models.Product{}, &models.Order{}, &models.Coupon{}, &models.BlogPost{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasColumn(&models.Product{}, "inventory_quantity"))
	assert.True(t, db.Migrator().HasColumn(&models.Order{}, "payment_status"))
}
