package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is derived from inventory at serialization time.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	StockBackorder  StockStatus = "backorder"
)

// DefaultLowStockThreshold applies when a product is created without one.
const DefaultLowStockThreshold = 5

type Inventory struct {
	Quantity          int  `json:"quantity" gorm:"not null"`
	LowStockThreshold int  `json:"lowStockThreshold" gorm:"not null"`
	TrackInventory    bool `json:"trackInventory" gorm:"not null"`
	AllowBackorders   bool `json:"allowBackorders" gorm:"not null"`
}

type Ratings struct {
	Average float64 `json:"average" gorm:"not null"`
	Count   int     `json:"count" gorm:"not null"`
}

// Product is a catalog entry.
type Product struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SKU              string           `json:"sku" gorm:"uniqueIndex;type:varchar(100);not null"`
	Name             string           `json:"name" gorm:"type:varchar(200);not null"`
	Slug             string           `json:"slug" gorm:"uniqueIndex;type:varchar(220);not null"`
	Description      string           `json:"description" gorm:"type:text"`
	ShortDescription string           `json:"shortDescription,omitempty" gorm:"type:varchar(500)"`
	Price            decimal.Decimal  `json:"price" gorm:"type:numeric(12,2);not null"`
	ComparePrice     *decimal.Decimal `json:"comparePrice,omitempty" gorm:"type:numeric(12,2)"`
	CategoryID       string           `json:"categoryId" gorm:"index;type:varchar(36)"`
	Tags             StringList       `json:"tags" gorm:"type:text"`
	Images           StringList       `json:"images" gorm:"type:text"`
	Inventory        Inventory        `json:"inventory" gorm:"embedded;embeddedPrefix:inventory_"`
	Ratings          Ratings          `json:"ratings" gorm:"embedded;embeddedPrefix:ratings_"`
	IsActive         bool             `json:"isActive" gorm:"index;not null"`
	IsFeatured       bool             `json:"isFeatured" gorm:"index;not null"`
	CreatedAt        time.Time        `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// StockStatus derives availability from the inventory settings.
func (p Product) StockStatus() StockStatus {
	inv := p.Inventory
	if !inv.TrackInventory {
		return StockInStock
	}
	if inv.Quantity <= 0 {
		if inv.AllowBackorders {
			return StockBackorder
		}
		return StockOutOfStock
	}
	if inv.Quantity <= inv.LowStockThreshold {
		return StockLowStock
	}
	return StockInStock
}

// DiscountPercentage is the whole-number saving relative to ComparePrice.
func (p Product) DiscountPercentage() int {
	if p.ComparePrice == nil || !p.ComparePrice.GreaterThan(p.Price) {
		return 0
	}
	cp := *p.ComparePrice
	pct := cp.Sub(p.Price).Div(cp).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// CanFulfil reports whether qty units can be sold right now.
func (p Product) CanFulfil(qty int) bool {
	if !p.Inventory.TrackInventory || p.Inventory.AllowBackorders {
		return true
	}
	return p.Inventory.Quantity >= qty
}

func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		StockStatus        StockStatus `json:"stockStatus"`
		DiscountPercentage int         `json:"discountPercentage"`
	}{
		alias:              alias(p),
		StockStatus:        p.StockStatus(),
		DiscountPercentage: p.DiscountPercentage(),
	})
}

// Review is a customer's rating of a product.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"index;type:varchar(36);not null"`
	UserID    string    `json:"userId" gorm:"index;type:varchar(36);not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title,omitempty" gorm:"type:varchar(200)"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}
