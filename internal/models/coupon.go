package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (d DiscountType) IsValid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

func ParseDiscountType(value string) (DiscountType, error) {
	d := DiscountType(value)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid discount type %q", value)
	}
	return d, nil
}

// Coupon is a discount code. Code is stored upper-cased and trimmed.
type Coupon struct {
	ID            string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code          string           `json:"code" gorm:"uniqueIndex;type:varchar(50);not null"`
	Description   string           `json:"description,omitempty" gorm:"type:varchar(500)"`
	DiscountType  DiscountType     `json:"discountType" gorm:"type:varchar(20);not null"`
	DiscountValue decimal.Decimal  `json:"discountValue" gorm:"type:numeric(12,2);not null"`
	MinPurchase   *decimal.Decimal `json:"minPurchase,omitempty" gorm:"type:numeric(12,2)"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty" gorm:"type:numeric(12,2)"`
	UsageLimit    *int             `json:"usageLimit,omitempty"`
	UsageCount    int              `json:"usageCount" gorm:"not null"`
	StartDate     time.Time        `json:"startDate" gorm:"not null"`
	EndDate       time.Time        `json:"endDate" gorm:"not null"`
	IsActive      bool             `json:"isActive" gorm:"not null"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}
