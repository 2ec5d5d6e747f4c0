package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/pagination"

	"github.com/shopspring/decimal"
)

// Reasons reported for a coupon that cannot be applied.
const (
	ReasonCouponNotFound   = "coupon not found"
	ReasonCouponInactive   = "coupon is not active"
	ReasonCouponNotStarted = "coupon is not yet valid"
	ReasonCouponExpired    = "coupon has expired"
	ReasonCouponExhausted  = "coupon usage limit reached"
	ReasonMinimumPurchase  = "minimum purchase not met"
)

// CouponEvaluation is the outcome of checking a code against a subtotal.
type CouponEvaluation struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Coupon   *models.Coupon  `json:"coupon,omitempty"`
}

// NormalizeCouponCode trims and upper-cases a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EvaluateCoupon applies the validity checks in order and computes the
// discount. The first failing check determines the reason.
func EvaluateCoupon(c *models.Coupon, subtotal decimal.Decimal, now time.Time) CouponEvaluation {
	switch {
	case c == nil:
		return CouponEvaluation{Reason: ReasonCouponNotFound}
	case !c.IsActive:
		return CouponEvaluation{Reason: ReasonCouponInactive}
	case now.Before(c.StartDate):
		return CouponEvaluation{Reason: ReasonCouponNotStarted}
	case now.After(c.EndDate):
		return CouponEvaluation{Reason: ReasonCouponExpired}
	case c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit:
		return CouponEvaluation{Reason: ReasonCouponExhausted}
	case c.MinPurchase != nil && subtotal.LessThan(*c.MinPurchase):
		return CouponEvaluation{Reason: ReasonMinimumPurchase}
	}
	return CouponEvaluation{Valid: true, Discount: CalculateDiscount(c, subtotal), Coupon: c}
}

// CalculateDiscount bounds the raw discount by MaxDiscount and the subtotal.
func CalculateDiscount(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if c.DiscountType == models.DiscountPercentage {
		discount = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	} else {
		discount = c.DiscountValue
	}
	if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
		discount = *c.MaxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return models.RoundMoney(discount)
}

type CouponInput struct {
	Code          string           `json:"code" validate:"required,max=50"`
	Description   string           `json:"description" validate:"max=500"`
	DiscountType  string           `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	MinPurchase   *decimal.Decimal `json:"minPurchase"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	UsageLimit    *int             `json:"usageLimit" validate:"omitempty,min=1"`
	StartDate     time.Time        `json:"startDate" validate:"required"`
	EndDate       time.Time        `json:"endDate" validate:"required"`
	IsActive      *bool            `json:"isActive"`
}

// CouponService evaluates and manages discount coupons.
type CouponService struct {
	repo repositories.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repositories.CouponRepository) *CouponService {
	return &CouponService{repo: repo, now: utcNow}
}

// WithClock replaces the time source used for validity windows.
func (s *CouponService) WithClock(now func() time.Time) *CouponService {
	s.now = now
	return s
}

// Evaluate looks the code up and checks it against subtotal. Only store
// failures are returned as errors; an unusable coupon is a valid=false result.
func (s *CouponService) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (CouponEvaluation, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return CouponEvaluation{Reason: ReasonCouponNotFound}, nil
	}
	coupon, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return CouponEvaluation{Reason: ReasonCouponNotFound}, nil
		}
		return CouponEvaluation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load coupon")
	}
	return EvaluateCoupon(coupon, subtotal, s.now()), nil
}

func (s *CouponService) List(ctx context.Context, page pagination.Params) ([]models.Coupon, pagination.Meta, error) {
	page = page.Normalize(pagination.DefaultLimit)
	coupons, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list coupons")
	}
	return coupons, pagination.NewMeta(page, total), nil
}

func validateCouponInput(in CouponInput) error {
	if _, err := models.ParseDiscountType(in.DiscountType); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "discountType must be percentage or fixed")
	}
	if in.DiscountValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discountValue must not be negative")
	}
	if in.DiscountType == string(models.DiscountPercentage) && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if in.MinPurchase != nil && in.MinPurchase.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minPurchase must not be negative")
	}
	if in.MaxDiscount != nil && in.MaxDiscount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "maxDiscount must not be negative")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usageLimit must be at least 1")
	}
	if !in.EndDate.After(in.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "endDate must be after startDate")
	}
	return nil
}

func applyCouponInput(c *models.Coupon, in CouponInput) {
	c.Code = NormalizeCouponCode(in.Code)
	c.Description = in.Description
	c.DiscountType = models.DiscountType(in.DiscountType)
	c.DiscountValue = models.RoundMoney(in.DiscountValue)
	c.MinPurchase = in.MinPurchase
	c.MaxDiscount = in.MaxDiscount
	c.UsageLimit = in.UsageLimit
	c.StartDate = in.StartDate.UTC()
	c.EndDate = in.EndDate.UTC()
	c.IsActive = true
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{}
	applyCouponInput(coupon, in)
	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create coupon")
	}
	return coupon, nil
}

func (s *CouponService) Update(ctx context.Context, id string, in CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Coupon not found", "failed to load coupon")
	}
	applyCouponInput(coupon, in)
	if err := s.repo.Update(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Coupon code already exists")
		}
		return nil, notFoundOr(err, "Coupon not found", "failed to update coupon")
	}
	return coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Coupon not found", "failed to delete coupon")
	}
	return nil
}

// notFoundOr maps repository ErrNotFound to NOT_FOUND and anything else to INTERNAL.
func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
