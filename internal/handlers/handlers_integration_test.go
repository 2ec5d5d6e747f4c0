package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/payments"
	"storefront/internal/server"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@shop.test"
	adminPassword = "admin-secret"
)

type testApp struct {
	app     *fiber.App
	metrics *metrics.ServerMetrics
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test_jwt_secret", TokenTTL: time.Hour},
		Order: config.OrderConfig{
			CouponPolicy:          "soft",
			Currency:              "INR",
			TaxRate:               decimal.RequireFromString("0.18"),
			FreeShippingThreshold: decimal.NewFromInt(500),
			ShippingFee:           decimal.NewFromInt(50),
		},
	}
}

// setupApp builds the full app over a private in-memory SQLite database.
func setupApp(t *testing.T, limit int) *testApp {
	t.Helper()
	db, err := database.OpenInMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)

	log := logger.Nop()
	m := metrics.NewServerMetrics("test")
	svc := server.NewServices(db, testConfig(), payments.NewRegistry(), nil, m, log)
	require.NoError(t, svc.Auth.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword))

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), "api", limit, time.Minute)
	app := server.NewApp(server.Options{Name: "storefront-test", CORSOrigins: "*"}, svc, limiter, m, log)
	return &testApp{app: app, metrics: m}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Pagination map[string]any  `json:"pagination"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, env.Error)
	return decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token
}

func (a *testApp) registerAndLogin(t *testing.T, name, email string) string {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return a.login(t, email, "password123")
}

func (a *testApp) createProduct(t *testing.T, token, sku, price string, qty int) string {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/v1/products", token, map[string]any{
		"sku":       sku,
		"name":      "Product " + sku,
		"price":     price,
		"inventory": map[string]any{"quantity": qty},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[struct {
		ID string `json:"id"`
	}](t, env.Data).ID
}

var shippingAddress = map[string]string{
	"name": "Jane Doe", "phone": "5550100", "addressLine1": "1 Main St",
	"city": "Pune", "state": "MH", "postalCode": "411001", "country": "IN",
}

func TestAuthFlow(t *testing.T) {
	a := setupApp(t, 0)

	status, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Jane", "email": "Jane@Example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	status, env = a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, env = a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"name": "J", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "email")

	status, env = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "jane@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", env.Error)

	assert.NotEmpty(t, a.login(t, "jane@example.com", "password123"))
}

func TestProductEndpoints(t *testing.T) {
	a := setupApp(t, 0)
	admin := a.login(t, adminEmail, adminPassword)
	user := a.registerAndLogin(t, "Jane", "jane@example.com")

	t.Run("admin only writes", func(t *testing.T) {
		status, _ := a.do(t, http.MethodPost, "/api/v1/products", "", map[string]any{"sku": "X"})
		assert.Equal(t, http.StatusUnauthorized, status)
		status, _ = a.do(t, http.MethodPost, "/api/v1/products", user, map[string]any{"sku": "X"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	id := a.createProduct(t, admin, "TEE-1", "299.99", 10)

	t.Run("duplicate sku", func(t *testing.T) {
		status, env := a.do(t, http.MethodPost, "/api/v1/products", admin, map[string]any{
			"sku": "TEE-1", "name": "Another", "price": "10",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "SKU already exists", env.Error)
	})

	t.Run("public list is paginated", func(t *testing.T) {
		a.createProduct(t, admin, "TEE-2", "19.99", 0)
		status, env := a.do(t, http.MethodGet, "/api/v1/products?limit=1&sort=price-asc", "", nil)
		require.Equal(t, http.StatusOK, status)
		items := decode[[]map[string]any](t, env.Data)
		require.Len(t, items, 1)
		assert.Equal(t, "TEE-2", items[0]["sku"])
		assert.EqualValues(t, 2, env.Pagination["total"])
		assert.Equal(t, true, env.Pagination["hasNextPage"])
	})

	t.Run("sortBy orders by price", func(t *testing.T) {
		a.createProduct(t, admin, "CHEAP", "10", 3)
		a.createProduct(t, admin, "PRICEY", "900", 3)
		skus := func(query string) []string {
			status, env := a.do(t, http.MethodGet, "/api/v1/products?"+query, "", nil)
			require.Equal(t, http.StatusOK, status, env.Error)
			var got []string
			for _, p := range decode[[]map[string]any](t, env.Data) {
				got = append(got, p["sku"].(string))
			}
			return got
		}
		// newest first would put PRICEY ahead of CHEAP
		assert.Equal(t, []string{"CHEAP", "TEE-2", "TEE-1", "PRICEY"}, skus("sortBy=price-asc"))
		assert.Equal(t, []string{"PRICEY", "TEE-1", "TEE-2", "CHEAP"}, skus("sortBy=price-desc"))
	})

	t.Run("get by slug", func(t *testing.T) {
		status, env := a.do(t, http.MethodGet, "/api/v1/products/product-tee-1", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, id, decode[map[string]any](t, env.Data)["id"])
	})

	t.Run("invalid query", func(t *testing.T) {
		status, env := a.do(t, http.MethodGet, "/api/v1/products?minPrice=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid minPrice: abc", env.Error)
	})

	t.Run("review updates rating", func(t *testing.T) {
		status, env := a.do(t, http.MethodPost, "/api/v1/products/"+id+"/reviews", user, map[string]any{"rating": 4, "comment": "Nice"})
		require.Equal(t, http.StatusCreated, status, env.Error)
		ratings := decode[map[string]any](t, env.Data)["ratings"].(map[string]any)
		assert.EqualValues(t, 4, ratings["average"])
		assert.EqualValues(t, 1, ratings["count"])
	})

	t.Run("hidden once inactive", func(t *testing.T) {
		status, _ := a.do(t, http.MethodPut, "/api/v1/products/"+id, admin, map[string]any{"isActive": false})
		require.Equal(t, http.StatusOK, status)
		status, _ = a.do(t, http.MethodGet, "/api/v1/products/"+id, "", nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = a.do(t, http.MethodGet, "/api/v1/products/"+id, admin, nil)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestOrderFlow(t *testing.T) {
	a := setupApp(t, 0)
	admin := a.login(t, adminEmail, adminPassword)
	jane := a.registerAndLogin(t, "Jane", "jane@example.com")
	bob := a.registerAndLogin(t, "Bob", "bob@example.com")
	productID := a.createProduct(t, admin, "TEE-1", "300", 5)

	status, env := a.do(t, http.MethodPost, "/api/v1/coupons", admin, map[string]any{
		"code":          "save10",
		"discountType":  "percentage",
		"discountValue": "10",
		"startDate":     time.Now().Add(-time.Hour),
		"endDate":       time.Now().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = a.do(t, http.MethodPost, "/api/v1/coupons/validate", jane, map[string]any{"code": "SAVE10", "subtotal": "300"})
	require.Equal(t, http.StatusOK, status)
	eval := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, eval["valid"])
	assert.EqualValues(t, 30, eval["discount"])

	status, env = a.do(t, http.MethodPost, "/api/v1/orders", jane, map[string]any{
		"items":           []map[string]any{{"productId": productID, "quantity": 2}},
		"shippingAddress": shippingAddress,
		"paymentMethod":   "razorpay",
		"couponCode":      "save10",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	order := decode[map[string]any](t, env.Data)
	orderID := order["id"].(string)
	// 600 subtotal, free shipping, 108 tax, 60 discount
	assert.EqualValues(t, 648, order["total"])
	assert.Equal(t, "pending", order["status"])

	t.Run("stock is reserved", func(t *testing.T) {
		status, env := a.do(t, http.MethodPost, "/api/v1/orders", jane, map[string]any{
			"items":           []map[string]any{{"productId": productID, "quantity": 4}},
			"shippingAddress": shippingAddress,
			"paymentMethod":   "razorpay",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Insufficient stock for: Product TEE-1", env.Error)
	})

	t.Run("owner only", func(t *testing.T) {
		status, _ := a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, bob, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, admin, nil)
		assert.Equal(t, http.StatusOK, status)

		status, env := a.do(t, http.MethodGet, "/api/v1/orders", bob, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, decode[[]map[string]any](t, env.Data))
	})

	t.Run("status transitions", func(t *testing.T) {
		path := "/api/v1/orders/" + orderID + "/status"
		status, _ := a.do(t, http.MethodPatch, path, jane, map[string]any{"status": "shipped"})
		assert.Equal(t, http.StatusUnauthorized, status)

		status, env := a.do(t, http.MethodPatch, path, admin, map[string]any{"status": "delivered"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "cannot transition order from pending to delivered", env.Error)

		status, env = a.do(t, http.MethodPatch, path, admin, map[string]any{"status": "shipped", "trackingNumber": "TRK1"})
		assert.Equal(t, http.StatusBadRequest, status, env.Error)

		status, env = a.do(t, http.MethodPatch, path, admin, map[string]any{"status": "processing"})
		require.Equal(t, http.StatusOK, status, env.Error)
		status, env = a.do(t, http.MethodPatch, path, admin, map[string]any{"status": "shipped", "trackingNumber": "TRK1"})
		require.Equal(t, http.StatusOK, status, env.Error)
		shipped := decode[map[string]any](t, env.Data)
		assert.Equal(t, "TRK1", shipped["trackingNumber"])
		assert.NotNil(t, shipped["shippedAt"])
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		status, env := a.do(t, http.MethodPost, "/api/v1/payment/stripe", jane, map[string]any{"orderId": orderID, "amount": "648"})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "internal server error", env.Error)
	})

	t.Run("dashboard", func(t *testing.T) {
		status, env := a.do(t, http.MethodGet, "/api/v1/admin/dashboard", admin, nil)
		require.Equal(t, http.StatusOK, status, env.Error)
		d := decode[map[string]any](t, env.Data)
		assert.EqualValues(t, 1, d["orders"].(map[string]any)["total"])
		assert.EqualValues(t, 2, d["users"].(map[string]any)["total"])

		status, _ = a.do(t, http.MethodGet, "/api/v1/admin/dashboard", jane, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestContentEndpoints(t *testing.T) {
	a := setupApp(t, 0)
	admin := a.login(t, adminEmail, adminPassword)

	status, env := a.do(t, http.MethodPost, "/api/v1/blog/categories", admin, map[string]any{"name": "News"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	categoryID := decode[map[string]any](t, env.Data)["id"]

	status, env = a.do(t, http.MethodPost, "/api/v1/blog", admin, map[string]any{
		"title": "Hello World", "content": "First post", "excerpt": "First", "categoryId": categoryID, "status": "published",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, "hello-world", decode[map[string]any](t, env.Data)["slug"])

	status, env = a.do(t, http.MethodGet, "/api/v1/blog/hello-world", "", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["views"])

	status, env = a.do(t, http.MethodGet, "/api/v1/blog/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	status, env = a.do(t, http.MethodPost, "/api/v1/contact", "", map[string]any{
		"name": "Jane", "email": "JANE@example.com", "subject": "Shipping", "message": "Do you ship abroad?",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	msgID := decode[map[string]any](t, env.Data)["id"].(string)

	status, env = a.do(t, http.MethodGet, "/api/v1/contact?isRead=false", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	status, env = a.do(t, http.MethodPatch, "/api/v1/contact/"+msgID+"/read", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, true, decode[map[string]any](t, env.Data)["isRead"])

	status, _ = a.do(t, http.MethodGet, "/api/v1/contact", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimitAndPlumbing(t *testing.T) {
	a := setupApp(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := a.do(t, http.MethodGet, "/api/v1/categories", "", nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, env := a.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests. Please try again later.", env.Error)

	status, env = a.do(t, http.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "storefront_test_rate_limited_total 1")
}
