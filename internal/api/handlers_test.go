// Empress - E-Commerce Backend for the Empress Storefront
// Copyright 2026 Empress Shop
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/empress-shop/empress

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/empress-shop/empress/internal/auth"
	"github.com/empress-shop/empress/internal/cart"
	"github.com/empress-shop/empress/internal/catalog"
	"github.com/empress-shop/empress/internal/checkout"
	"github.com/empress-shop/empress/internal/collab"
	"github.com/empress-shop/empress/internal/config"
	"github.com/empress-shop/empress/internal/models"
	"github.com/empress-shop/empress/internal/store"
)

type testServer struct {
	handler  http.Handler
	db       *store.DB
	provider *collab.FakePaymentProvider
	mailer   *collab.FakeMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins: []string{"*"},
			RateLimit:   1000,
			ResetURL:    "https://shop.test/auth/reset-password",
		},
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret-at-least-32-characters-long",
			SessionTTL: time.Hour,
			ResetTTL:   15 * time.Minute,
			BcryptCost: 4,
		},
		Stripe: config.StripeConfig{
			Currency:   "cad",
			SuccessURL: "https://shop.test/success",
			CancelURL:  "https://shop.test/cancel",
		},
	}

	tokens, err := auth.NewTokenManager(&cfg.Security)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	hasher := auth.NewHasher(cfg.Security.BcryptCost)
	limiter := auth.NewLoginLimiter(20, time.Minute)
	t.Cleanup(limiter.Stop)
	authmw := auth.NewMiddleware(auth.NewResolver(tokens, db.Admins, db.Customers))

	images := &collab.FakeImageHost{}
	mailer := &collab.FakeMailer{}
	provider := &collab.FakePaymentProvider{}

	carts := cart.NewEngine(db.Customers, db.Products)
	catalogSvc := catalog.NewService(db, images)
	checkoutSvc := checkout.NewService(db, carts, provider, &cfg.Stripe)

	srv := NewServer(cfg, db, tokens, hasher, limiter, authmw, carts, catalogSvc, checkoutSvc, mailer)
	return &testServer{
		handler:  srv.Routes(),
		db:       db,
		provider: provider,
		mailer:   mailer,
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope from %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"email":           email,
		"phone":           "555-0100",
		"street":          "1 Analytical Way",
		"city":            "London",
		"province":        "ON",
		"country":         "Canada",
		"postalCode":      "K1A 0A1",
		"password":        "hunter2hunter2",
		"confirmPassword": "hunter2hunter2",
	}
}

// registerAndLogin creates a customer account and returns its bearer token.
func (ts *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody(email))
	if code != http.StatusCreated {
		t.Fatalf("register: %d %s", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if data.Token == "" {
		t.Fatal("login returned no token")
	}
	return data.Token
}

// bootstrapAdmin creates the administrator and returns its bearer token.
func (ts *testServer) bootstrapAdmin(t *testing.T) string {
	t.Helper()

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/admin", "", map[string]any{
		"email":    "admin@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusCreated {
		t.Fatalf("create admin: %d %s", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]any{
		"email":    "admin@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusOK {
		t.Fatalf("admin login: %d %s", code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	return data.Token
}

func (ts *testServer) seedProduct(t *testing.T, name string, price float64, stock int, visible bool) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Price:       price,
		Stock:       stock,
		Description: "d",
		Summary:     "s",
		IsVisible:   visible,
	}
	if err := ts.db.Products.Insert(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	code, env := ts.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if code != http.StatusOK || env.Message != "ok" {
		t.Errorf("health = %d %q", code, env.Message)
	}
}

func TestAdminBootstrapIsSingleUse(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/api/v1/auth/admin", "", map[string]any{
		"email":    "admin@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusCreated {
		t.Fatalf("first admin create = %d", code)
	}

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/admin", "", map[string]any{
		"email":    "second@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusBadRequest || env.Message != "Admin already exists" {
		t.Errorf("second admin create = %d %q", code, env.Message)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.bootstrapAdmin(t)

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]any{
		"email":    "admin@example.com",
		"password": "wrongpassword",
	})
	if code != http.StatusBadRequest || env.Message != "Invalid email or password" {
		t.Errorf("bad password = %d %q", code, env.Message)
	}

	// Unknown account gets the same message; no account oracle.
	code, env = ts.do(t, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusBadRequest || env.Message != "Invalid email or password" {
		t.Errorf("unknown account = %d %q", code, env.Message)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ada@example.com"))
	if code != http.StatusCreated {
		t.Fatalf("register = %d", code)
	}

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ada@example.com"))
	if code != http.StatusBadRequest || env.Message != "Customer already exists" {
		t.Errorf("duplicate register = %d %q", code, env.Message)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	body := registerBody("ada@example.com")
	body["confirmPassword"] = "different-password"
	if code, _ := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", body); code != http.StatusBadRequest {
		t.Errorf("mismatched confirm = %d, want 400", code)
	}

	body = registerBody("not-an-email")
	if code, _ := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", body); code != http.StatusBadRequest {
		t.Errorf("bad email = %d, want 400", code)
	}
}

func TestRoleGating(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.bootstrapAdmin(t)
	customerToken := ts.registerAndLogin(t, "ada@example.com")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"anonymous cart", http.MethodGet, "/api/v1/cart", ""},
		{"anonymous admin list", http.MethodGet, "/api/v1/admin/products", ""},
		{"customer on admin route", http.MethodGet, "/api/v1/admin/products", customerToken},
		{"admin on customer route", http.MethodGet, "/api/v1/cart", adminToken},
	}
	for _, tc := range cases {
		code, env := ts.do(t, tc.method, tc.path, tc.token, nil)
		if code != http.StatusUnauthorized || env.Message != "Unauthorized access" {
			t.Errorf("%s = %d %q, want 401 Unauthorized access", tc.name, code, env.Message)
		}
	}

	// The right role passes.
	if code, _ := ts.do(t, http.MethodGet, "/api/v1/admin/products", adminToken, nil); code != http.StatusOK {
		t.Errorf("admin on admin route = %d, want 200", code)
	}
	if code, _ := ts.do(t, http.MethodGet, "/api/v1/cart", customerToken, nil); code != http.StatusOK {
		t.Errorf("customer on customer route = %d, want 200", code)
	}
}

func TestCheckAuth(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ada@example.com")

	code, env := ts.do(t, http.MethodGet, "/api/v1/auth/check", token, nil)
	if code != http.StatusOK {
		t.Fatalf("check = %d %q", code, env.Message)
	}
	var profile struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("decode check data: %v", err)
	}
	if profile.Email != "ada@example.com" {
		t.Errorf("check profile = %+v", profile)
	}

	// Admins get a user projection instead of a customer profile.
	adminToken := ts.bootstrapAdmin(t)
	code, env = ts.do(t, http.MethodGet, "/api/v1/auth/check", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("admin check = %d %q", code, env.Message)
	}
	var adminData struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &adminData); err != nil {
		t.Fatalf("decode admin check data: %v", err)
	}
	if adminData.User.Email != "admin@example.com" {
		t.Errorf("admin check user = %+v", adminData.User)
	}

	if code, _ := ts.do(t, http.MethodGet, "/api/v1/auth/check", "", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous check = %d, want 401", code)
	}
}

func TestStorefrontHidesInvisibleAndSoldOut(t *testing.T) {
	ts := newTestServer(t)
	visible := ts.seedProduct(t, "Visible", 10, 5, true)
	hidden := ts.seedProduct(t, "Hidden", 10, 5, false)
	soldOut := ts.seedProduct(t, "Sold Out", 10, 0, true)

	code, env := ts.do(t, http.MethodGet, "/api/v1/products", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list products = %d", code)
	}
	var products []models.Product
	if err := json.Unmarshal(env.Data, &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 1 || products[0].ID != visible.ID {
		t.Errorf("storefront list = %+v, want only the visible in-stock product", products)
	}

	if code, _ := ts.do(t, http.MethodGet, "/api/v1/products/"+visible.ID, "", nil); code != http.StatusOK {
		t.Errorf("visible product = %d, want 200", code)
	}
	for _, p := range []*models.Product{hidden, soldOut} {
		code, env := ts.do(t, http.MethodGet, "/api/v1/products/"+p.ID, "", nil)
		if code != http.StatusNotFound || env.Message != "Product not found" {
			t.Errorf("%s via storefront = %d %q, want 404", p.Name, code, env.Message)
		}
	}

	if code, _ := ts.do(t, http.MethodGet, "/api/v1/products/bogus", "", nil); code != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", code)
	}
}

func TestCartEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ada@example.com")
	product := ts.seedProduct(t, "Bracelet", 20, 5, true)

	code, env := ts.do(t, http.MethodPost, "/api/v1/cart", token, map[string]any{
		"productId": product.ID,
		"quantity":  2,
	})
	if code != http.StatusOK {
		t.Fatalf("add to cart = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/cart", token, map[string]any{
		"productId": product.ID,
		"quantity":  10,
	})
	if code != http.StatusBadRequest || env.Message != "Insufficient stock available" {
		t.Errorf("oversized add = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get cart = %d", code)
	}
	var lines []cart.Line
	if err := json.Unmarshal(env.Data, &lines); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 2 || lines[0].Name != "Bracelet" {
		t.Errorf("cart = %+v", lines)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/cart/"+product.ID, token, map[string]any{
		"quantity":  1,
		"operation": "subtract",
	})
	if code != http.StatusOK || env.Message != "Cart updated successfully" {
		t.Errorf("subtract = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/cart/"+product.ID, token, map[string]any{
		"quantity":  1,
		"operation": "multiply",
	})
	if code != http.StatusBadRequest {
		t.Errorf("bad operation = %d %q", code, env.Message)
	}

	// Updating a product that is not in the cart.
	other := ts.seedProduct(t, "Other", 5, 5, true)
	code, env = ts.do(t, http.MethodPut, "/api/v1/cart/"+other.ID, token, map[string]any{
		"quantity":  1,
		"operation": "add",
	})
	if code != http.StatusNotFound || env.Message != "Product not found in cart" {
		t.Errorf("update absent line = %d %q", code, env.Message)
	}

	if code, _ := ts.do(t, http.MethodDelete, "/api/v1/cart/"+product.ID, token, nil); code != http.StatusOK {
		t.Errorf("remove = %d", code)
	}
	// Removing again is a no-op, not an error.
	if code, _ := ts.do(t, http.MethodDelete, "/api/v1/cart/"+product.ID, token, nil); code != http.StatusOK {
		t.Errorf("repeated remove = %d", code)
	}
}

func TestCheckoutAndWebhook(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ada@example.com")
	product := ts.seedProduct(t, "Bracelet", 20, 5, true)

	// Checkout with an empty cart fails.
	code, env := ts.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	if code != http.StatusBadRequest {
		t.Errorf("empty cart checkout = %d %q", code, env.Message)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/v1/cart", token, map[string]any{
		"productId": product.ID,
		"quantity":  2,
	})
	if code != http.StatusOK {
		t.Fatalf("add to cart = %d", code)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	if code != http.StatusOK || env.Message != "Payment session created successfully" {
		t.Fatalf("checkout = %d %q", code, env.Message)
	}
	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode checkout data: %v", err)
	}
	if data.URL == "" {
		t.Fatal("checkout returned no redirect URL")
	}

	// Provider confirms the session; the webhook is unauthenticated but
	// signature-verified by the provider adapter.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte("{}")))
	req.Header.Set("Stripe-Signature", "sig")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook = %d %s", rec.Code, rec.Body.String())
	}

	got, err := ts.db.Products.Get(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 3 || got.ItemsSold != 2 {
		t.Errorf("after payment stock=%d itemsSold=%d, want 3 and 2", got.Stock, got.ItemsSold)
	}

	code, env = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get cart = %d", code)
	}
	var lines []cart.Line
	if err := json.Unmarshal(env.Data, &lines); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("cart after payment = %+v, want empty", lines)
	}
}

func TestCheckoutWithDeletedCartProduct(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ada@example.com")
	kept := ts.seedProduct(t, "Kept", 10, 5, true)
	gone := ts.seedProduct(t, "Gone", 5, 5, true)

	for _, p := range []*models.Product{kept, gone} {
		code, env := ts.do(t, http.MethodPost, "/api/v1/cart", token, map[string]any{
			"productId": p.ID,
			"quantity":  1,
		})
		if code != http.StatusOK {
			t.Fatalf("add %s = %d %q", p.Name, code, env.Message)
		}
	}
	if err := ts.db.Products.Delete(context.Background(), gone.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	// The stale line is skipped; checkout proceeds with the rest.
	code, env := ts.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	if code != http.StatusOK {
		t.Fatalf("checkout with stale line = %d %q", code, env.Message)
	}

	// When nothing purchasable remains the cart is empty, not a missing
	// customer.
	if err := ts.db.Products.Delete(context.Background(), kept.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	code, env = ts.do(t, http.MethodPost, "/api/v1/checkout", token, nil)
	if code != http.StatusBadRequest || env.Message != "Cart is empty" {
		t.Errorf("all-stale checkout = %d %q, want 400 Cart is empty", code, env.Message)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.Err = collab.ErrBadSignature

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader([]byte("{}")))
	req.Header.Set("Stripe-Signature", "bad")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if rec.Code != http.StatusBadRequest || env.Message != "Invalid webhook signature" {
		t.Errorf("bad signature = %d %q", rec.Code, env.Message)
	}
}

func TestAdminProductCRUD(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.bootstrapAdmin(t)

	body := map[string]any{
		"name":        "Aurora Bracelet",
		"price":       42.50,
		"stock":       8,
		"description": "a bracelet",
		"summary":     "bracelet",
		"isVisible":   true,
	}
	code, env := ts.do(t, http.MethodPost, "/api/v1/admin/products", adminToken, body)
	if code != http.StatusCreated || env.Message != "Product added successfully" {
		t.Fatalf("create product = %d %q", code, env.Message)
	}
	var product models.Product
	if err := json.Unmarshal(env.Data, &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/admin/products", adminToken, body)
	if code != http.StatusBadRequest || env.Message != "Product with the same name already exists" {
		t.Errorf("duplicate create = %d %q", code, env.Message)
	}

	body["price"] = 50.0
	code, env = ts.do(t, http.MethodPut, "/api/v1/admin/products/"+product.ID, adminToken, body)
	if code != http.StatusOK || env.Message != "Product updated successfully" {
		t.Errorf("update = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/admin/products/"+product.ID+"/visibility", adminToken, nil)
	if code != http.StatusOK || env.Message != "Product visibility changed successfully" {
		t.Errorf("toggle visibility = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/admin/products/"+product.ID+"/materials", adminToken, map[string]any{
		"material": "sterling silver",
	})
	if code != http.StatusOK || env.Message != "Material added to product successfully" {
		t.Errorf("add material = %d %q", code, env.Message)
	}
	code, env = ts.do(t, http.MethodDelete, "/api/v1/admin/products/"+product.ID+"/materials", adminToken, map[string]any{
		"material": "gold",
	})
	if code != http.StatusNotFound {
		t.Errorf("remove absent material = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodDelete, "/api/v1/admin/products/"+product.ID, adminToken, nil)
	if code != http.StatusOK || env.Message != "Product deleted successfully" {
		t.Errorf("delete = %d %q", code, env.Message)
	}
	code, env = ts.do(t, http.MethodGet, "/api/v1/admin/products/"+product.ID, adminToken, nil)
	if code != http.StatusNotFound {
		t.Errorf("get deleted = %d %q", code, env.Message)
	}
}

func TestAdminNotifications(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.bootstrapAdmin(t)
	ts.seedProduct(t, "Low", 10, 2, true)
	ts.seedProduct(t, "Plenty", 10, 50, true)

	code, env := ts.do(t, http.MethodGet, "/api/v1/admin/notifications", adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("notifications = %d", code)
	}
	var data struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(data.Products) != 1 || data.Products[0].Name != "Low" {
		t.Errorf("low stock products = %+v, want only %q", data.Products, "Low")
	}
}

func TestUpdateProfileAndPassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "ada@example.com")

	code, env := ts.do(t, http.MethodPut, "/api/v1/me", token, map[string]any{
		"phone": "555-0199",
		"city":  "Toronto",
	})
	if code != http.StatusOK || env.Message != "Customer details updated successfully" {
		t.Fatalf("update profile = %d %q", code, env.Message)
	}
	var profile struct {
		Phone   string `json:"phone"`
		Address struct {
			City string `json:"city"`
		} `json:"address"`
		FirstName string `json:"firstName"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Phone != "555-0199" || profile.Address.City != "Toronto" {
		t.Errorf("profile = %+v", profile)
	}
	// Untouched fields keep their values.
	if profile.FirstName != "Ada" {
		t.Errorf("firstName = %q, want Ada", profile.FirstName)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/me/password", token, map[string]any{
		"currentPassword": "wrong-password",
		"newPassword":     "newpassword123",
	})
	if code != http.StatusBadRequest || env.Message != "Current password is incorrect" {
		t.Errorf("wrong current password = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPut, "/api/v1/me/password", token, map[string]any{
		"currentPassword": "hunter2hunter2",
		"newPassword":     "newpassword123",
	})
	if code != http.StatusOK || env.Message != "Customer password updated successfully" {
		t.Fatalf("update password = %d %q", code, env.Message)
	}

	// Old password no longer works; new one does.
	code, _ = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	})
	if code != http.StatusBadRequest {
		t.Errorf("old password login = %d, want 400", code)
	}
	code, _ = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "newpassword123",
	})
	if code != http.StatusOK {
		t.Errorf("new password login = %d, want 200", code)
	}
}

func TestMembershipEndpoints(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.bootstrapAdmin(t)
	product := ts.seedProduct(t, "Bracelet", 20, 5, true)

	collection := &models.Collection{Name: "Summer", Description: "d", Products: []string{}}
	if err := ts.db.Collections.Insert(context.Background(), collection); err != nil {
		t.Fatalf("seed collection: %v", err)
	}

	path := "/api/v1/admin/collections/" + collection.ID + "/products"
	code, env := ts.do(t, http.MethodPut, path, adminToken, map[string]any{"productId": product.ID})
	if code != http.StatusOK || env.Message != "Product added to collection successfully" {
		t.Fatalf("add membership = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPut, path, adminToken, map[string]any{"productId": product.ID})
	if code != http.StatusBadRequest || env.Message != "Product already exists in the collection" {
		t.Errorf("repeated add = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodDelete, path, adminToken, map[string]any{"productId": product.ID})
	if code != http.StatusOK || env.Message != "Product removed from collection successfully" {
		t.Errorf("remove membership = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodDelete, path, adminToken, map[string]any{"productId": product.ID})
	if code != http.StatusBadRequest || env.Message != "Product does not exist in the collection" {
		t.Errorf("repeated remove = %d %q", code, env.Message)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "ada@example.com")

	code, env := ts.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]any{
		"email": "nobody@example.com",
	})
	if code != http.StatusNotFound {
		t.Errorf("forgot for unknown email = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]any{
		"email": "ada@example.com",
	})
	if code != http.StatusOK || env.Message != "Password reset email sent" {
		t.Fatalf("forgot = %d %q", code, env.Message)
	}

	code, env = ts.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]any{
		"token":           "not-a-real-token",
		"password":        "newpassword123",
		"confirmPassword": "newpassword123",
	})
	if code != http.StatusBadRequest || env.Message != "Invalid or expired token" {
		t.Errorf("bad reset token = %d %q", code, env.Message)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d %q, want 400", rec.Code, env.Message)
	}
}
