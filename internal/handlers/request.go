package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/pagination"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
			}
			return pkgerrors.New(pkgerrors.CodeValidation, strings.Join(msgs, "; "))
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body")
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s: %s", key, raw)
	}
	return n, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s: %s", key, raw)
	}
	return &d, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s: %s", key, raw)
	}
	return &f, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid %s: %s", key, raw)
	}
	return &b, nil
}

// queryFlag is queryBool with absent meaning false.
func queryFlag(c *fiber.Ctx, key string) (bool, error) {
	b, err := queryBool(c, key)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

func pageParams(c *fiber.Ctx) (pagination.Params, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
